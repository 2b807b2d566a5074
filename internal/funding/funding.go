// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Package funding tops up reader wallets with gas via the custodial funder.
//
// # Architecture
//
// The [Coordinator] sits in front of every ledger write that needs gas. It
// funds each wallet at most once, records funded addresses in PostgreSQL so
// restarts stay idempotent, and collapses concurrent requests for the same
// address into a single funding attempt.
package funding

import (
	"context"
	"time"
)

// Record marks a wallet as having received its one-time gas grant.
type Record struct {
	Address   string    `json:"address"`
	TxHash    string    `json:"tx_hash,omitempty"`
	FundedAt  time.Time `json:"funded_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines the data access contract for funding records.
type Repository interface {
	// Find returns the funding record for an address, or nil when the
	// address has never been funded.
	Find(ctx context.Context, address string) (*Record, error)

	// Mark records an address as funded. Marking twice is a no-op.
	Mark(ctx context.Context, record *Record) error
}

// Funder performs the custodial gas transfer itself.
type Funder interface {
	// Fund sends the gas grant to the address and returns the transaction
	// hash when the funder reports one.
	Fund(ctx context.Context, address string) (string, error)
}
