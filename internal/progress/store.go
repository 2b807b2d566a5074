// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package progress

import (
	"context"
	"time"
)

// BlobStore persists the authoritative per-reader progress blob.
type BlobStore interface {
	// Load returns the reader's full progress blob.
	//
	// A missing or unreadable blob yields an empty [Blob], never an error:
	// losing progress state must degrade to "start over", not to a failed
	// reading session.
	Load(ctx context.Context, subjectID string) (Blob, error)

	// Save overwrites the reader's progress blob.
	Save(ctx context.Context, subjectID string, blob Blob) error
}

// MirrorRow is one reader-book pair in the relational display mirror.
type MirrorRow struct {
	UserID         string    `json:"user_id"`
	BookID         string    `json:"book_id"`
	CurrentPage    int       `json:"current_page"`
	MaxPageReached int       `json:"max_page_reached"`
	PagesRead      int       `json:"pages_read"`
	QuizzesPassed  int       `json:"quizzes_passed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MirrorRepository maintains the relational display mirror of the blob.
type MirrorRepository interface {
	// Upsert writes a reader-book row, max-wins on all counters.
	Upsert(ctx context.Context, row *MirrorRow) error

	// ListByUser returns all mirror rows for a reader, most recent first.
	ListByUser(ctx context.Context, userID string) ([]*MirrorRow, error)
}
