// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package book

import (
	"context"
	"fmt"
	"time"

	"github.com/iqralabs/iqra/internal/platform/apperr"
	"github.com/iqralabs/iqra/pkg/slug"
	"github.com/iqralabs/iqra/pkg/uuidv7"
)

// Service implements catalogue use cases.
type Service struct {
	repository Repository
}

// NewService constructs a new catalogue [Service].
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// List returns a filtered page of the catalogue plus the total match count.
func (service *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]*Book, int, error) {
	return service.repository.List(ctx, filter, limit, offset)
}

// Get returns a book together with its ordered pages.
//
// # Returns
//   - Returns [apperr.NotFound] if the book does not exist.
func (service *Service) Get(ctx context.Context, bookID string) (*Book, []*Page, error) {
	foundBook, err := service.repository.FindByID(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}

	pages, err := service.repository.Pages(ctx, bookID)
	if err != nil {
		return nil, nil, fmt.Errorf("book_service_get_pages_failed: %w", err)
	}

	return foundBook, pages, nil
}

// CreateInput holds the data required to publish a new book.
type CreateInput struct {
	Title       string
	Author      string
	Category    string
	CoverColor  string
	Description string
	// PageContents is the ordered page text; index i becomes page number i+1.
	PageContents []string
}

// Create publishes a new book with its full page sequence.
//
// # Business Rules
//   - The slug is derived from the title and must be unique.
//   - A book must carry at least one page.
func (service *Service) Create(ctx context.Context, input CreateInput) (*Book, error) {
	// ── 1. Validation ─────────────────────────────────────────────────────

	if len(input.PageContents) == 0 {
		return nil, apperr.Unprocessable("A book must have at least one page")
	}

	bookSlug := slug.From(input.Title)
	if _, err := service.repository.FindBySlug(ctx, bookSlug); err == nil {
		return nil, apperr.Conflict("A book with this title already exists")
	}

	// ── 2. Entity Construction ────────────────────────────────────────────

	now := time.Now()
	newBook := &Book{
		ID:          uuidv7.New(),
		Slug:        bookSlug,
		Title:       input.Title,
		Author:      input.Author,
		Category:    input.Category,
		CoverColor:  input.CoverColor,
		Description: input.Description,
		TotalPages:  len(input.PageContents),
		CreatedAt:   now,
	}

	pages := make([]*Page, 0, len(input.PageContents))
	for index, content := range input.PageContents {
		pages = append(pages, &Page{
			ID:         uuidv7.New(),
			BookID:     newBook.ID,
			PageNumber: index + 1,
			Content:    content,
			CreatedAt:  now,
		})
	}

	// ── 3. Persistence ────────────────────────────────────────────────────

	if err := service.repository.Create(ctx, newBook, pages); err != nil {
		return nil, fmt.Errorf("book_service_create_failed: %w", err)
	}

	return newBook, nil
}
