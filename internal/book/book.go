// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Package book holds the reading catalogue: books and their ordered pages.
//
// # Architecture
//
// Entities in this package represent the "Truth" of the catalogue.
// They have no dependencies on outer layers (like databases, APIs, or libraries).
package book

import (
	"time"
)

// Book represents a single publication in the reading catalogue.
//
// # Rules
//   - Slug is unique and URL-safe, derived from the title at creation.
//   - TotalPages is denormalized from the page rows for cheap list rendering.
type Book struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Category    string    `json:"category"`
	CoverColor  string    `json:"cover_color,omitempty"`
	Description string    `json:"description"`
	TotalPages  int       `json:"total_pages"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page represents a single page of book content.
//
// PageNumber is 1-based and unique within a book. Pages are always served
// ordered by PageNumber; the reader navigates by index into that sequence.
type Page struct {
	ID         string    `json:"id"`
	BookID     string    `json:"book_id"`
	PageNumber int       `json:"page_number"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter narrows the catalogue listing.
type Filter struct {
	// Search matches against title and author (case-insensitive).
	Search string
	// Category restricts results to a single category when non-empty.
	Category string
}
