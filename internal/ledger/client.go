// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package ledger

import (
	"context"
)

// Client is the typed contract surface of the reward ledger.
//
// # Error Taxonomy
//
// Implementations translate transport and contract failures into the
// application error codes: ALREADY_REGISTERED, USER_REJECTED,
// INSUFFICIENT_GAS, FUNDING_UNAVAILABLE and TRANSPORT_ERROR. Callers branch
// on those codes, never on gateway-specific payloads.
type Client interface {
	// RegisterUser enrolls an identity on the ledger.
	//
	// Returns [apperr.AlreadyRegistered] if the address already holds a
	// ledger profile.
	RegisterUser(ctx context.Context, identity Identity) error

	// RecordPagesRead credits page reads to an address and returns the
	// transaction hash.
	RecordPagesRead(ctx context.Context, address string, pages int) (string, error)

	// RecordQuizPassed credits a passed quiz to an address and returns the
	// transaction hash.
	RecordQuizPassed(ctx context.Context, address string) (string, error)

	// GetUser returns the on-chain profile for an address.
	//
	// An unregistered address yields (nil, nil), not an error: absence is
	// an expected state the caller must handle, not a failure.
	GetUser(ctx context.Context, address string) (*User, error)

	// IsUserRegistered reports whether the address holds a ledger profile.
	IsUserRegistered(ctx context.Context, address string) (bool, error)

	// GetLeaderboard returns the top reward earners, highest first.
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// CheckBalance returns the native-token balance of an address.
	CheckBalance(ctx context.Context, address string) (Balance, error)
}
