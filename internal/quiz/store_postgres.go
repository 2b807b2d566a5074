// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// PostgreSQL implementation of the quiz data access.

package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iqralabs/iqra/internal/platform/apperr"
	"github.com/iqralabs/iqra/internal/platform/dberr"
)

// quizRepository implements the [Repository] interface using pgx.
type quizRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed quiz store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &quizRepository{pool: pool}
}

// FindByBookAndPage returns the curated challenge for the given book page.
func (repository *quizRepository) FindByBookAndPage(ctx context.Context, bookID string, pageNumber int) (*Challenge, error) {
	const query = `
		SELECT id, bookid, pagenumber, question, options, answerindex, createdat
		FROM core.quiz
		WHERE bookid = $1 AND pagenumber = $2`

	challenge := &Challenge{}
	err := repository.pool.QueryRow(ctx, query, bookID, pageNumber).Scan(
		&challenge.ID,
		&challenge.BookID,
		&challenge.PageNumber,
		&challenge.Question,
		&challenge.Options,
		&challenge.AnswerIndex,
		&challenge.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Quiz")
		}
		return nil, fmt.Errorf("postgres_quiz_repo_find_failed: %w", err)
	}

	return challenge, nil
}

// Create persists a new curated challenge.
func (repository *quizRepository) Create(ctx context.Context, challenge *Challenge) error {
	const query = `
		INSERT INTO core.quiz (id, bookid, pagenumber, question, options, answerindex, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := repository.pool.Exec(ctx, query,
		challenge.ID,
		challenge.BookID,
		challenge.PageNumber,
		challenge.Question,
		challenge.Options,
		challenge.AnswerIndex,
		challenge.CreatedAt,
	)

	if err != nil {
		// One challenge per book page; a duplicate insert surfaces as Conflict.
		return dberr.Wrap(err, "postgres_quiz_repo_create_failed")
	}

	return nil
}

// RecordResponse persists a response unless one already exists for the
// same (user, book, page) triple.
//
// The unique constraint on core.quizresponse enforces the once-only rule
// at the database level, so concurrent submissions cannot both win.
func (repository *quizRepository) RecordResponse(ctx context.Context, response *Response) (bool, error) {
	const query = `
		INSERT INTO core.quizresponse (id, userid, bookid, pagenumber, correct, answeredat)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (userid, bookid, pagenumber) DO NOTHING`

	tag, err := repository.pool.Exec(ctx, query,
		response.ID,
		response.UserID,
		response.BookID,
		response.PageNumber,
		response.Correct,
		response.AnsweredAt,
	)

	if err != nil {
		return false, fmt.Errorf("postgres_quiz_repo_record_response_failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
