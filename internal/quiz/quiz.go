// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Package quiz holds comprehension challenges shown during reading sessions.
//
// # Architecture
//
// A challenge is keyed by (book, page number). Challenges can come from the
// curated database table or from the built-in question pool; the service
// decides per the configured source policy. Responses are recorded at most
// once per (user, book, page) and the first recorded outcome is final.
package quiz

import (
	"time"
)

// Challenge represents a single multiple-choice comprehension question.
//
// AnswerIndex is never serialized; grading happens server-side only.
type Challenge struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id,omitempty"`
	PageNumber  int       `json:"page_number"`
	Question    string    `json:"question"`
	Options     []string  `json:"options"`
	AnswerIndex int       `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Grade reports whether the submitted option index is the correct answer.
func (challenge *Challenge) Grade(answerIndex int) bool {
	return answerIndex == challenge.AnswerIndex
}

// Response records the outcome of a reader answering a challenge.
type Response struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	BookID     string    `json:"book_id"`
	PageNumber int       `json:"page_number"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answered_at"`
}
