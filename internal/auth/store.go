// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package auth

import (
	"context"
)

// UserRepository defines the data access contract for reader profiles.
//
// # Review Process
//
// This interface is placed in a separate file from user.go so entity changes
// and storage-contract changes can be reviewed independently by the team.
//
// # Implementations
//
// The canonical implementation for Iqra is PostgreSQL (store_postgres.go).
type UserRepository interface {
	// FindByID returns the profile with the given ID.
	//
	// Returns [apperr.NotFound] if the profile does not exist.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the profile with the given email.
	//
	// Returns [apperr.NotFound] if no reader is registered with this email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername returns the profile with the given username.
	//
	// Returns [apperr.NotFound] if the username is available.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByWalletAddress returns the profile linked to the given wallet.
	//
	// Returns [apperr.NotFound] if no profile has claimed this address.
	FindByWalletAddress(ctx context.Context, address string) (*User, error)

	// Create persists a brand-new reader profile to the storage.
	//
	// Returns a wrapped error if a unique constraint (email/username) fails.
	Create(ctx context.Context, user *User) error

	// Update persists changes to mutable profile fields (DisplayName, etc).
	// Passwords must be updated via [UpdatePassword].
	Update(ctx context.Context, user *User) error

	// UpdatePassword replaces only the user's password hash.
	// This is separate from [Update] to prevent accidental overwrites
	// during unrelated profile updates.
	UpdatePassword(ctx context.Context, userID, newHash string) error

	// AttachWallet links a wallet address to a profile. The address is stored
	// lowercased; one wallet can belong to at most one profile.
	AttachWallet(ctx context.Context, userID, address string) error

	// CreditPoints adds reward points to the relational points mirror.
	// pages and quizzes increment the respective lifetime counters; points is
	// the total weight added. The mirror only ever grows — there is no debit.
	CreditPoints(ctx context.Context, userID string, points, pages, quizzes int64) error

	// TopByPoints returns the highest-scoring profiles for the mirror
	// leaderboard, ordered by total points descending.
	TopByPoints(ctx context.Context, limit int) ([]*User, error)
}

// SessionRepository defines the data access contract for refresh-token sessions.
//
// # Domain Ownership
//
// This is kept alongside [UserRepository] because sessions are owned entirely
// by the users' domain, despite serving authentication security.
type SessionRepository interface {
	// Create persists a new tracking session for an authenticated login.
	Create(ctx context.Context, session *Session) error

	// FindByTokenHash returns the active session matching the given token hash.
	//
	// Returns [apperr.NotFound] if the session is invalid, expired, or revoked.
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Revoke marks a specific session as permanently invalidated.
	// Usually triggered during explicit user logout from a specific device.
	Revoke(ctx context.Context, sessionID string) error

	// RevokeAll revokes every active session belonging to the userID.
	// Crucial for security event responses (e.g., password change or account compromise).
	RevokeAll(ctx context.Context, userID string) error

	// DeleteExpired physically removes sessions whose ExpiresAt is in the past.
	// Intended to be called by a periodic background cleanup worker to reclaim storage.
	DeleteExpired(ctx context.Context) error
}
