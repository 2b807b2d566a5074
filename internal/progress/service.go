// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iqralabs/iqra/internal/platform/ctxutil"
)

// Service mediates between the authoritative blob store and the relational
// display mirror.
type Service struct {
	blobStore BlobStore
	mirror    MirrorRepository
}

// NewService constructs a new progress [Service].
func NewService(blobStore BlobStore, mirror MirrorRepository) *Service {
	return &Service{blobStore: blobStore, mirror: mirror}
}

// Get returns the reader's progress in a book, or fresh progress if none
// exists yet.
func (service *Service) Get(ctx context.Context, userID, bookID string) (*BookProgress, error) {
	blob, err := service.blobStore.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("progress_service_get_failed: %w", err)
	}

	if existing, ok := blob[bookID]; ok {
		return existing, nil
	}

	return NewBookProgress(), nil
}

// Put merges the given record into the reader's blob and writes it back.
//
// # Concurrency
//
// The stored record is re-read and merged before saving, so two devices
// writing progress for the same book converge on the union of their read
// history. The resume position is not merged: the record being saved holds
// the page the reader stands on, and that is where they resume.
// The relational mirror is refreshed best-effort; a mirror failure is logged
// but never fails the reading session.
func (service *Service) Put(ctx context.Context, userID, bookID string, record *BookProgress) error {
	blob, err := service.blobStore.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("progress_service_put_failed: %w", err)
	}

	if stored, ok := blob[bookID]; ok {
		record.MergeFrom(stored)
	}
	blob[bookID] = record

	if err := service.blobStore.Save(ctx, userID, blob); err != nil {
		return fmt.Errorf("progress_service_put_failed: %w", err)
	}

	if err := service.mirror.Upsert(ctx, &MirrorRow{
		UserID:         userID,
		BookID:         bookID,
		CurrentPage:    record.CurrentPage,
		MaxPageReached: record.MaxPageReached,
		PagesRead:      record.PagesRead(),
		QuizzesPassed:  len(record.CompletedQuizzes),
		UpdatedAt:      record.UpdatedAt,
	}); err != nil {
		ctxutil.GetLogger(ctx).Warn("progress mirror upsert failed",
			slog.String("user_id", userID),
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Overview returns the mirror rows backing a reader's library view.
func (service *Service) Overview(ctx context.Context, userID string) ([]*MirrorRow, error) {
	return service.mirror.ListByUser(ctx, userID)
}
