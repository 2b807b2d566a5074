// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a cryptographically random hex string.
//
// # Parameters
//   - byteLength: The number of random bytes (the hex string is twice as long).
//
// Used for refresh tokens and password reset tokens, which must be
// unguessable and carry no embedded claims.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("auth: failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}

// HashToken returns the SHA-256 hex digest of a token.
//
// # Why hash before storing?
//
// Refresh tokens are bearer credentials. Storing only the digest means a
// database leak does not hand out usable tokens, while lookups stay O(1)
// via the unique index on the digest column.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
