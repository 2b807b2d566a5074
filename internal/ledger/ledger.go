// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Package ledger mirrors reading rewards onto the blockchain ledger.
//
// # Architecture
//
// All chain access goes through the typed [Client] interface; nothing else
// in the codebase speaks to the gateway directly. The canonical
// implementation is an HTTP JSON gateway client (client_http.go) that maps
// gateway failures onto the application error taxonomy.
//
// On-chain reads are cached briefly in Redis; writes are always live.
package ledger

import (
	"math/big"
	"time"
)

// Identity is the on-chain identity to enroll for a reader.
type Identity struct {
	Address  string `json:"address"`
	Username string `json:"username"`
}

// User is a reader's on-chain reward profile.
type User struct {
	Address       string    `json:"address"`
	Username      string    `json:"username"`
	Points        int64     `json:"points"`
	PagesRead     int64     `json:"pages_read"`
	QuizzesPassed int64     `json:"quizzes_passed"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// LeaderboardEntry is one row of the on-chain reward ranking.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Address  string `json:"address,omitempty"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
}

// Balance is a wallet's native-token balance in wei.
type Balance struct {
	Address string
	Wei     *big.Int
}

// Below reports whether the balance is under the given wei threshold.
func (b Balance) Below(threshold uint64) bool {
	return b.Wei.Cmp(new(big.Int).SetUint64(threshold)) < 0
}
