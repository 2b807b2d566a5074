// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// PostgreSQL implementation of the relational progress mirror.

package progress

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// mirrorRepository implements [MirrorRepository] using pgx.
type mirrorRepository struct {
	pool *pgxpool.Pool
}

// NewMirrorRepository constructs a PostgreSQL backed progress mirror.
func NewMirrorRepository(pool *pgxpool.Pool) MirrorRepository {
	return &mirrorRepository{pool: pool}
}

// Upsert writes a reader-book row. GREATEST keeps the counters max-wins at
// the database level, so a stale writer cannot shrink mirrored progress. The
// resume position is exempt: it tracks the reader backwards too, so the
// latest write takes it as-is.
func (repository *mirrorRepository) Upsert(ctx context.Context, row *MirrorRow) error {
	const query = `
		INSERT INTO core.readingprogress (userid, bookid, currentpage, maxpage, pagesread, quizzespassed, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (userid, bookid) DO UPDATE SET
			currentpage   = EXCLUDED.currentpage,
			maxpage       = GREATEST(core.readingprogress.maxpage, EXCLUDED.maxpage),
			pagesread     = GREATEST(core.readingprogress.pagesread, EXCLUDED.pagesread),
			quizzespassed = GREATEST(core.readingprogress.quizzespassed, EXCLUDED.quizzespassed),
			updatedat     = EXCLUDED.updatedat`

	_, err := repository.pool.Exec(ctx, query,
		row.UserID,
		row.BookID,
		row.CurrentPage,
		row.MaxPageReached,
		row.PagesRead,
		row.QuizzesPassed,
		row.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_progress_mirror_upsert_failed: %w", err)
	}

	return nil
}

// ListByUser returns all mirror rows for a reader, most recent first.
func (repository *mirrorRepository) ListByUser(ctx context.Context, userID string) ([]*MirrorRow, error) {
	const query = `
		SELECT userid, bookid, currentpage, maxpage, pagesread, quizzespassed, updatedat
		FROM core.readingprogress
		WHERE userid = $1
		ORDER BY updatedat DESC`

	rows, err := repository.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_progress_mirror_list_failed: %w", err)
	}
	defer rows.Close()

	results := make([]*MirrorRow, 0)
	for rows.Next() {
		row := &MirrorRow{}
		if err := rows.Scan(
			&row.UserID,
			&row.BookID,
			&row.CurrentPage,
			&row.MaxPageReached,
			&row.PagesRead,
			&row.QuizzesPassed,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_progress_mirror_scan_failed: %w", err)
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_progress_mirror_rows_failed: %w", err)
	}

	return results, nil
}
