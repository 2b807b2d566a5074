// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Package reading drives live reading sessions: page navigation, reward
// credits, quiz gating, and the detached ledger writes behind them.
//
// # Architecture
//
// The [Controller] owns an in-memory registry of active sessions keyed by
// (reader, book). Each operation loads or creates the session, mutates it
// under its own lock, persists progress through the progress service, and
// reports ledger credits through the session's credit log.
//
// Ledger writes never block page turns. Page and quiz credits are dispatched
// on detached goroutines that report pending, success, or error into the
// credit log the client polls.
package reading

import (
	"sync"
	"time"

	"github.com/iqralabs/iqra/internal/book"
	"github.com/iqralabs/iqra/internal/progress"
	"github.com/iqralabs/iqra/internal/quiz"
)

// State is the lifecycle phase of a reading session.
type State string

const (
	// StateReading allows free page navigation.
	StateReading State = "reading"
	// StateQuizPending pauses point-earning until the quiz resolves.
	// Navigation stays free; pages visited meanwhile are left unread so
	// their credit is claimed after resolution.
	StateQuizPending State = "quiz_pending"
)

// Session is the in-memory state of one reader inside one book.
//
// All fields are guarded by mu; the controller never touches them without
// holding it.
type Session struct {
	mu sync.Mutex

	userID     string
	bookID     string
	totalPages int
	pages      []*book.Page

	state           State
	pendingQuizPage int

	record *progress.BookProgress

	// uncreditedPages accumulates first reads until the ledger batch is due.
	uncreditedPages int

	credits *CreditLog

	startedAt time.Time
}

// key returns the registry key for a reader-book pair.
func key(userID, bookID string) string {
	return userID + "|" + bookID
}

// View is the session snapshot returned to the client after every operation.
type View struct {
	BookID      string `json:"book_id"`
	State       State  `json:"state"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	PageContent string `json:"page_content"`
	PagesRead   int    `json:"pages_read"`

	// Quiz is present only while the session is quiz-pending.
	Quiz *quiz.Challenge `json:"quiz,omitempty"`

	// RewardToast signals the client to celebrate a reading milestone.
	RewardToast bool `json:"reward_toast,omitempty"`

	// Finished is true once the reader has passed the last page.
	Finished bool `json:"finished,omitempty"`
}
