// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// PostgreSQL implementation of the funding record store.

package funding

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// fundingRepository implements [Repository] using pgx.
type fundingRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed funding record store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &fundingRepository{pool: pool}
}

// Find returns the funding record for an address, or nil when absent.
func (repository *fundingRepository) Find(ctx context.Context, address string) (*Record, error) {
	const query = `
		SELECT address, txhash, fundedat, createdat
		FROM core.fundedwallet
		WHERE address = $1`

	record := &Record{}
	err := repository.pool.QueryRow(ctx, query, address).Scan(
		&record.Address,
		&record.TxHash,
		&record.FundedAt,
		&record.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_funding_repo_find_failed: %w", err)
	}

	return record, nil
}

// Mark records an address as funded. A concurrent or repeated mark for the
// same address leaves the first record in place.
func (repository *fundingRepository) Mark(ctx context.Context, record *Record) error {
	const query = `
		INSERT INTO core.fundedwallet (address, txhash, fundedat, createdat)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING`

	_, err := repository.pool.Exec(ctx, query,
		record.Address,
		record.TxHash,
		record.FundedAt,
		record.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_funding_repo_mark_failed: %w", err)
	}

	return nil
}
