// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package funding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iqralabs/iqra/internal/ledger"
	"github.com/iqralabs/iqra/internal/platform/apperr"
	"github.com/iqralabs/iqra/internal/platform/ctxutil"
)

// BalanceChecker reads a wallet's gas balance. The ledger client satisfies it.
type BalanceChecker interface {
	CheckBalance(ctx context.Context, address string) (ledger.Balance, error)
}

// Coordinator guarantees a wallet can pay gas before a ledger write.
//
// # Protocol
//
//  1. A wallet with a funding record is trusted and skipped.
//  2. A wallet whose balance already clears the threshold is marked funded
//     without a grant.
//  3. Otherwise the custodial funder is asked for a grant, the coordinator
//     waits a fixed delay for the transfer to settle, then re-checks the
//     balance. Attempts repeat up to the retry bound.
//
// Funding is once per address for the lifetime of the platform; the record
// store makes that survive restarts, and the singleflight group makes it
// hold across concurrent sessions in one process.
type Coordinator struct {
	repository    Repository
	funder        Funder
	balances      BalanceChecker
	minGasBalance uint64
	waitDelay     time.Duration
	maxRetries    int

	group singleflight.Group
}

// NewCoordinator constructs a funding [Coordinator].
//
// # Parameters
//   - minGasBalance: Wei threshold under which a wallet needs a grant.
//   - waitDelay: Fixed settle time between a grant and the balance re-check.
//   - maxRetries: Upper bound on grant attempts per EnsureFunded call.
func NewCoordinator(
	repository Repository,
	funder Funder,
	balances BalanceChecker,
	minGasBalance uint64,
	waitDelay time.Duration,
	maxRetries int,
) *Coordinator {
	return &Coordinator{
		repository:    repository,
		funder:        funder,
		balances:      balances,
		minGasBalance: minGasBalance,
		waitDelay:     waitDelay,
		maxRetries:    maxRetries,
	}
}

// EnsureFunded makes sure the address can pay gas, funding it if needed.
//
// Concurrent calls for the same address share one funding attempt.
func (coordinator *Coordinator) EnsureFunded(ctx context.Context, address string) error {
	_, err, _ := coordinator.group.Do(address, func() (interface{}, error) {
		return nil, coordinator.ensureFunded(ctx, address)
	})
	return err
}

func (coordinator *Coordinator) ensureFunded(ctx context.Context, address string) error {
	logger := ctxutil.GetLogger(ctx)

	// ── 1. Idempotence Check ──────────────────────────────────────────────

	record, err := coordinator.repository.Find(ctx, address)
	if err != nil {
		return fmt.Errorf("funding_coordinator_record_lookup_failed: %w", err)
	}
	if record != nil {
		return nil
	}

	// ── 2. Balance Pre-Flight ─────────────────────────────────────────────

	balance, err := coordinator.balances.CheckBalance(ctx, address)
	if err != nil {
		return err
	}

	if !balance.Below(coordinator.minGasBalance) {
		return coordinator.mark(ctx, address, "")
	}

	// ── 3. Grant & Settle Loop ────────────────────────────────────────────

	for attempt := 1; attempt <= coordinator.maxRetries; attempt++ {
		txHash, err := coordinator.funder.Fund(ctx, address)
		if err != nil {
			return err
		}

		// The grant transaction needs time to land before the balance
		// reflects it.
		select {
		case <-ctx.Done():
			return apperr.FundingUnavailable(ctx.Err())
		case <-time.After(coordinator.waitDelay):
		}

		balance, err = coordinator.balances.CheckBalance(ctx, address)
		if err != nil {
			return err
		}

		if !balance.Below(coordinator.minGasBalance) {
			logger.Info("wallet funded",
				slog.String("address", address),
				slog.String("tx_hash", txHash),
				slog.Int("attempt", attempt),
			)
			return coordinator.mark(ctx, address, txHash)
		}

		logger.Warn("wallet balance still below threshold after grant",
			slog.String("address", address),
			slog.Int("attempt", attempt),
		)
	}

	return apperr.FundingUnavailable(
		fmt.Errorf("balance for %s still below threshold after %d grants", address, coordinator.maxRetries))
}

// mark persists the funding record for an address.
func (coordinator *Coordinator) mark(ctx context.Context, address, txHash string) error {
	now := time.Now()
	if err := coordinator.repository.Mark(ctx, &Record{
		Address:   address,
		TxHash:    txHash,
		FundedAt:  now,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("funding_coordinator_mark_failed: %w", err)
	}
	return nil
}
