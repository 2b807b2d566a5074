// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package quiz

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/iqralabs/iqra/internal/platform/apperr"
	"github.com/iqralabs/iqra/pkg/uuidv7"
)

// Challenge source policies.
const (
	// SourcePool serves challenges from the built-in question pool only.
	SourcePool = "pool"
	// SourceDatabase prefers curated challenges and falls back to the pool
	// for pages without curated content.
	SourceDatabase = "database"
)

// Service implements quiz use cases.
type Service struct {
	repository Repository
	source     string
}

// NewService constructs a quiz [Service] with the given source policy.
// An unrecognized source falls back to [SourcePool].
func NewService(repository Repository, source string) *Service {
	if source != SourceDatabase {
		source = SourcePool
	}
	return &Service{repository: repository, source: source}
}

// ChallengeFor returns the challenge a reader must answer on the given page.
func (service *Service) ChallengeFor(ctx context.Context, bookID string, pageNumber int) (*Challenge, error) {
	if service.source == SourceDatabase {
		challenge, err := service.repository.FindByBookAndPage(ctx, bookID, pageNumber)
		if err == nil {
			return challenge, nil
		}
		if appError := apperr.As(err); appError == nil || appError.HTTPStatus != http.StatusNotFound {
			return nil, err
		}
		// No curated challenge for this page; the pool covers the gap.
	}

	return PoolChallenge(bookID, pageNumber), nil
}

// SubmitResult describes the outcome of grading a quiz answer.
type SubmitResult struct {
	// Correct reports whether the submitted answer was right.
	Correct bool
	// FirstResolution is true when this submission is the one that counts.
	// Later submissions for the same page are graded but never re-credited.
	FirstResolution bool
}

// Submit grades an answer and records the outcome at most once per
// (user, book, page).
func (service *Service) Submit(ctx context.Context, userID, bookID string, pageNumber, answerIndex int) (SubmitResult, error) {
	challenge, err := service.ChallengeFor(ctx, bookID, pageNumber)
	if err != nil {
		return SubmitResult{}, err
	}

	if answerIndex < 0 || answerIndex >= len(challenge.Options) {
		return SubmitResult{}, apperr.Unprocessable("Answer index is out of range")
	}

	correct := challenge.Grade(answerIndex)

	recorded, err := service.repository.RecordResponse(ctx, &Response{
		ID:         uuidv7.New(),
		UserID:     userID,
		BookID:     bookID,
		PageNumber: pageNumber,
		Correct:    correct,
		AnsweredAt: time.Now(),
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("quiz_service_submit_failed: %w", err)
	}

	return SubmitResult{Correct: correct, FirstResolution: recorded}, nil
}

// CreateInput holds the data required to curate a new challenge.
type CreateInput struct {
	BookID      string
	PageNumber  int
	Question    string
	Options     []string
	AnswerIndex int
}

// CreateChallenge curates a new database-backed challenge for a book page.
func (service *Service) CreateChallenge(ctx context.Context, input CreateInput) (*Challenge, error) {
	if len(input.Options) < 2 {
		return nil, apperr.Unprocessable("A challenge needs at least two options")
	}
	if input.AnswerIndex < 0 || input.AnswerIndex >= len(input.Options) {
		return nil, apperr.Unprocessable("Answer index is out of range")
	}

	challenge := &Challenge{
		ID:          uuidv7.New(),
		BookID:      input.BookID,
		PageNumber:  input.PageNumber,
		Question:    input.Question,
		Options:     input.Options,
		AnswerIndex: input.AnswerIndex,
		CreatedAt:   time.Now(),
	}

	if err := service.repository.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("quiz_service_create_failed: %w", err)
	}

	return challenge, nil
}
