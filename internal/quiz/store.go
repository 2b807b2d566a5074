// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package quiz

import (
	"context"
)

// Repository defines the data access contract for quiz challenges and responses.
type Repository interface {
	// FindByBookAndPage returns the curated challenge for the given book page.
	//
	// Returns [apperr.NotFound] if no curated challenge exists for the page.
	FindByBookAndPage(ctx context.Context, bookID string, pageNumber int) (*Challenge, error)

	// Create persists a new curated challenge.
	Create(ctx context.Context, challenge *Challenge) error

	// RecordResponse persists a response if none exists yet for the same
	// (user, book, page) triple.
	//
	// Returns true when the response was recorded, false when a prior
	// response already holds the slot. The stored outcome never changes
	// after the first write.
	RecordResponse(ctx context.Context, response *Response) (bool, error)
}
