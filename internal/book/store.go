// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package book

import (
	"context"
)

// Repository defines the data access contract for the reading catalogue.
//
// # Implementations
//
// The canonical implementation for Iqra is PostgreSQL (store_postgres.go).
// The reading session controller consumes this interface, never the
// concrete store, so tests can substitute an in-memory catalogue.
type Repository interface {
	// List returns a filtered, paginated slice of books plus the total count.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Book, int, error)

	// FindByID returns the book with the given ID.
	//
	// Returns [apperr.NotFound] if the book does not exist.
	FindByID(ctx context.Context, id string) (*Book, error)

	// FindBySlug returns the book with the given URL slug.
	//
	// Returns [apperr.NotFound] if the book does not exist.
	FindBySlug(ctx context.Context, slug string) (*Book, error)

	// Pages returns all pages of a book ordered by page number ascending.
	// An existing book with zero pages returns an empty slice, not an error.
	Pages(ctx context.Context, bookID string) ([]*Page, error)

	// Create persists a new book together with its ordered pages.
	Create(ctx context.Context, book *Book, pages []*Page) error
}
