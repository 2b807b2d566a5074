// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Built-in comprehension question pool.
//
// The pool serves deployments that have no curated quiz content yet. A page
// always maps to the same pool question so a reader who retries a session
// sees a stable challenge.

package quiz

import (
	"fmt"
	"hash/fnv"
)

// poolEntry is one reusable comprehension question.
type poolEntry struct {
	question    string
	options     []string
	answerIndex int
}

// questionPool holds the built-in challenges. Option order matters: the
// answerIndex points into the slice as written.
var questionPool = []poolEntry{
	{
		question:    "What is the best way to confirm you understood this page?",
		options:     []string{"Skip ahead quickly", "Summarize it in your own words", "Read only the first line", "Close the book"},
		answerIndex: 1,
	},
	{
		question:    "While reading, what should you do when you meet an unfamiliar word?",
		options:     []string{"Ignore it forever", "Stop reading entirely", "Infer its meaning from context", "Replace it with any word"},
		answerIndex: 2,
	},
	{
		question:    "Which habit most improves reading comprehension over time?",
		options:     []string{"Reading regularly", "Reading as fast as possible", "Only reading titles", "Avoiding difficult books"},
		answerIndex: 0,
	},
	{
		question:    "What does it mean to read actively?",
		options:     []string{"Reading while walking", "Questioning and connecting ideas as you read", "Reading out loud only", "Memorizing every sentence"},
		answerIndex: 1,
	},
	{
		question:    "Why do authors divide books into pages and chapters?",
		options:     []string{"To waste paper", "To make books heavier", "To organize ideas into digestible parts", "No particular reason"},
		answerIndex: 2,
	},
	{
		question:    "What should you do after finishing a difficult passage?",
		options:     []string{"Give up on the book", "Reflect on what it meant", "Tear out the page", "Start a different book"},
		answerIndex: 1,
	},
	{
		question:    "Which of these best describes the main idea of a passage?",
		options:     []string{"The first word on the page", "A minor detail", "The central point the author makes", "The page number"},
		answerIndex: 2,
	},
	{
		question:    "How can you tell a fact from an opinion in a text?",
		options:     []string{"Facts can be verified, opinions express judgment", "Opinions are always in bold", "Facts are always short", "There is no difference"},
		answerIndex: 0,
	},
}

// PoolChallenge returns the built-in challenge for a book page.
//
// Selection is a stable FNV-1a hash of (bookID, pageNumber) so repeated
// lookups for the same page yield the same question.
func PoolChallenge(bookID string, pageNumber int) *Challenge {
	hasher := fnv.New32a()
	fmt.Fprintf(hasher, "%s:%d", bookID, pageNumber)

	entry := questionPool[int(hasher.Sum32())%len(questionPool)]

	return &Challenge{
		ID:          fmt.Sprintf("pool-%s-%d", bookID, pageNumber),
		BookID:      bookID,
		PageNumber:  pageNumber,
		Question:    entry.question,
		Options:     entry.options,
		AnswerIndex: entry.answerIndex,
	}
}
