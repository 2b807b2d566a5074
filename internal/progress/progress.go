// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Package progress tracks where each reader stands in each book.
//
// # Architecture
//
// The authoritative record is a per-reader JSON blob in Redis mapping book ID
// to [BookProgress]. A relational mirror in PostgreSQL backs profile and
// leaderboard displays; it is a display cache, not the source of truth.
//
// Counters merge max-wins: read history and high-water marks only move
// forward, so a stale writer can never erase read pages. The resume position
// is different — it follows the reader, backwards included, so the latest
// writer wins there.
package progress

import (
	"sort"
	"time"
)

// BookProgress captures a single reader's state in a single book.
type BookProgress struct {
	// CurrentPage is the resume position, 1-based.
	CurrentPage int `json:"current_page"`
	// MaxPageReached is the high-water mark of pages ever visited.
	MaxPageReached int `json:"max_page_reached"`
	// ReadPages holds the page numbers already credited, sorted ascending.
	// Membership here is what makes re-reads free of duplicate credits.
	ReadPages []int `json:"read_pages"`
	// CompletedQuizzes holds page numbers whose quiz has been resolved.
	CompletedQuizzes []int     `json:"completed_quizzes"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewBookProgress returns fresh progress positioned at page 1.
func NewBookProgress() *BookProgress {
	return &BookProgress{CurrentPage: 1, MaxPageReached: 1}
}

// MarkPageRead records a page visit and reports whether this was the first
// read of that page. Only first reads earn credits.
func (p *BookProgress) MarkPageRead(pageNumber int) bool {
	first := insertSorted(&p.ReadPages, pageNumber)

	if pageNumber > p.MaxPageReached {
		p.MaxPageReached = pageNumber
	}
	p.UpdatedAt = time.Now()

	return first
}

// IsPageRead reports whether the page has already been read.
func (p *BookProgress) IsPageRead(pageNumber int) bool {
	return containsSorted(p.ReadPages, pageNumber)
}

// MarkQuizCompleted records a quiz resolution for the page and reports
// whether it was the first one. Later resolutions never change the record.
func (p *BookProgress) MarkQuizCompleted(pageNumber int) bool {
	first := insertSorted(&p.CompletedQuizzes, pageNumber)
	p.UpdatedAt = time.Now()
	return first
}

// IsQuizCompleted reports whether the page's quiz has been resolved.
func (p *BookProgress) IsQuizCompleted(pageNumber int) bool {
	return containsSorted(p.CompletedQuizzes, pageNumber)
}

// PagesRead returns the number of distinct pages read.
func (p *BookProgress) PagesRead() int {
	return len(p.ReadPages)
}

// MergeFrom folds another record into this one: max-wins on the counters,
// while CurrentPage keeps this record's value — the save in flight holds the
// page the reader actually stands on, and resuming at the furthest page ever
// reached would be wrong after backward navigation.
func (p *BookProgress) MergeFrom(other *BookProgress) {
	if other == nil {
		return
	}

	if other.MaxPageReached > p.MaxPageReached {
		p.MaxPageReached = other.MaxPageReached
	}
	for _, pageNumber := range other.ReadPages {
		insertSorted(&p.ReadPages, pageNumber)
	}
	for _, pageNumber := range other.CompletedQuizzes {
		insertSorted(&p.CompletedQuizzes, pageNumber)
	}
	if other.UpdatedAt.After(p.UpdatedAt) {
		p.UpdatedAt = other.UpdatedAt
	}
}

// Blob is the full persisted record for one reader, keyed by book ID.
type Blob map[string]*BookProgress

// insertSorted adds value to the sorted slice if absent and reports whether
// it was inserted.
func insertSorted(values *[]int, value int) bool {
	slice := *values
	index := sort.SearchInts(slice, value)
	if index < len(slice) && slice[index] == value {
		return false
	}

	slice = append(slice, 0)
	copy(slice[index+1:], slice[index:])
	slice[index] = value
	*values = slice

	return true
}

// containsSorted reports membership in a sorted slice.
func containsSorted(values []int, value int) bool {
	index := sort.SearchInts(values, value)
	return index < len(values) && values[index] == value
}
