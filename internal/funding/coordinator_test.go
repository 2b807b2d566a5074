// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package funding_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqralabs/iqra/internal/funding"
	"github.com/iqralabs/iqra/internal/ledger"
	"github.com/iqralabs/iqra/internal/platform/apperr"
)

const (
	testThreshold = uint64(1000)
	testDelay     = time.Millisecond
)

// memoryRepository is an in-memory funding record store.
type memoryRepository struct {
	records map[string]*funding.Record
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: make(map[string]*funding.Record)}
}

func (repo *memoryRepository) Find(_ context.Context, address string) (*funding.Record, error) {
	return repo.records[address], nil
}

func (repo *memoryRepository) Mark(_ context.Context, record *funding.Record) error {
	if _, exists := repo.records[record.Address]; !exists {
		repo.records[record.Address] = record
	}
	return nil
}

// scriptedBalances returns one balance per CheckBalance call, repeating the
// last entry once the script runs out.
type scriptedBalances struct {
	balances []uint64
	calls    int
}

func (checker *scriptedBalances) CheckBalance(_ context.Context, address string) (ledger.Balance, error) {
	index := checker.calls
	if index >= len(checker.balances) {
		index = len(checker.balances) - 1
	}
	checker.calls++
	return ledger.Balance{Address: address, Wei: new(big.Int).SetUint64(checker.balances[index])}, nil
}

// countingFunder records grant attempts and can simulate a funder outage.
type countingFunder struct {
	calls int
	fail  bool
}

func (funder *countingFunder) Fund(_ context.Context, _ string) (string, error) {
	funder.calls++
	if funder.fail {
		return "", apperr.FundingUnavailable(assert.AnError)
	}
	return "0xgrant", nil
}

func newCoordinator(repo funding.Repository, funder funding.Funder, balances funding.BalanceChecker) *funding.Coordinator {
	return funding.NewCoordinator(repo, funder, balances, testThreshold, testDelay, 3)
}

/*
TestCoordinator_EnsureFunded walks the full protocol: skip on record, mark on
sufficient balance, grant-and-settle on low balance.
*/
func TestCoordinator_EnsureFunded(t *testing.T) {
	t.Run("already_recorded_skips_everything", func(t *testing.T) {
		repo := newMemoryRepository()
		repo.records["0xabc"] = &funding.Record{Address: "0xabc"}
		funder := &countingFunder{}
		balances := &scriptedBalances{balances: []uint64{0}}

		err := newCoordinator(repo, funder, balances).EnsureFunded(context.Background(), "0xabc")

		require.NoError(t, err)
		assert.Zero(t, funder.calls, "a recorded wallet must never be re-funded")
		assert.Zero(t, balances.calls, "a recorded wallet needs no balance check")
	})

	t.Run("sufficient_balance_marks_without_grant", func(t *testing.T) {
		repo := newMemoryRepository()
		funder := &countingFunder{}
		balances := &scriptedBalances{balances: []uint64{testThreshold}}

		err := newCoordinator(repo, funder, balances).EnsureFunded(context.Background(), "0xabc")

		require.NoError(t, err)
		assert.Zero(t, funder.calls)
		require.Contains(t, repo.records, "0xabc")
		assert.Empty(t, repo.records["0xabc"].TxHash)
	})

	t.Run("low_balance_grants_then_settles", func(t *testing.T) {
		repo := newMemoryRepository()
		funder := &countingFunder{}
		balances := &scriptedBalances{balances: []uint64{10, testThreshold + 5}}

		err := newCoordinator(repo, funder, balances).EnsureFunded(context.Background(), "0xabc")

		require.NoError(t, err)
		assert.Equal(t, 1, funder.calls)
		require.Contains(t, repo.records, "0xabc")
		assert.Equal(t, "0xgrant", repo.records["0xabc"].TxHash)
	})

	t.Run("second_call_is_idempotent", func(t *testing.T) {
		repo := newMemoryRepository()
		funder := &countingFunder{}
		balances := &scriptedBalances{balances: []uint64{10, testThreshold + 5}}
		coordinator := newCoordinator(repo, funder, balances)

		require.NoError(t, coordinator.EnsureFunded(context.Background(), "0xabc"))
		require.NoError(t, coordinator.EnsureFunded(context.Background(), "0xabc"))

		assert.Equal(t, 1, funder.calls, "funding happens at most once per address")
	})
}

/*
TestCoordinator_FundingUnavailable covers the failure exits: funder outage
and a balance that never settles above the threshold.
*/
func TestCoordinator_FundingUnavailable(t *testing.T) {
	t.Run("funder_outage", func(t *testing.T) {
		repo := newMemoryRepository()
		funder := &countingFunder{fail: true}
		balances := &scriptedBalances{balances: []uint64{10}}

		err := newCoordinator(repo, funder, balances).EnsureFunded(context.Background(), "0xabc")

		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "FUNDING_UNAVAILABLE", ae.Code)
		assert.NotContains(t, repo.records, "0xabc")
	})

	t.Run("retries_exhausted", func(t *testing.T) {
		repo := newMemoryRepository()
		funder := &countingFunder{}
		balances := &scriptedBalances{balances: []uint64{10}} // never settles

		err := newCoordinator(repo, funder, balances).EnsureFunded(context.Background(), "0xabc")

		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "FUNDING_UNAVAILABLE", ae.Code)
		assert.Equal(t, 3, funder.calls, "every retry is a fresh grant attempt")
	})
}
