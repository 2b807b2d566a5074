// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package reading

import (
	"sync"
	"time"
)

// CreditKind distinguishes what a ledger credit rewards.
type CreditKind string

const (
	CreditKindPages CreditKind = "pages"
	CreditKindQuiz  CreditKind = "quiz"
)

// CreditState is the lifecycle of one detached ledger write.
type CreditState string

const (
	CreditStatePending CreditState = "pending"
	CreditStateSuccess CreditState = "success"
	CreditStateError   CreditState = "error"
)

// Credit is one ledger write tracked for the client.
type Credit struct {
	ID     int         `json:"id"`
	Kind   CreditKind  `json:"kind"`
	Pages  int         `json:"pages,omitempty"`
	State  CreditState `json:"state"`
	TxHash string      `json:"tx_hash,omitempty"`
	Error  string      `json:"error,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at,omitzero"`
}

// CreditLog collects the ledger credits of one session.
//
// Writers are the detached credit goroutines; readers are status polls. The
// log is append-then-resolve: entries are created pending and later flipped
// exactly once to success or error.
type CreditLog struct {
	mu      sync.Mutex
	nextID  int
	credits []*Credit
}

// NewCreditLog returns an empty credit log.
func NewCreditLog() *CreditLog {
	return &CreditLog{nextID: 1}
}

// Begin appends a pending credit and returns its ID.
func (log *CreditLog) Begin(kind CreditKind, pages int) int {
	log.mu.Lock()
	defer log.mu.Unlock()

	credit := &Credit{
		ID:        log.nextID,
		Kind:      kind,
		Pages:     pages,
		State:     CreditStatePending,
		CreatedAt: time.Now(),
	}
	log.nextID++
	log.credits = append(log.credits, credit)

	return credit.ID
}

// Succeed resolves a pending credit with its transaction hash.
func (log *CreditLog) Succeed(id int, txHash string) {
	log.resolve(id, CreditStateSuccess, txHash, "")
}

// Fail resolves a pending credit with an error description.
func (log *CreditLog) Fail(id int, message string) {
	log.resolve(id, CreditStateError, "", message)
}

func (log *CreditLog) resolve(id int, state CreditState, txHash, message string) {
	log.mu.Lock()
	defer log.mu.Unlock()

	for _, credit := range log.credits {
		if credit.ID != id || credit.State != CreditStatePending {
			continue
		}
		credit.State = state
		credit.TxHash = txHash
		credit.Error = message
		credit.ResolvedAt = time.Now()
		return
	}
}

// Snapshot returns a copy of all credits in creation order.
func (log *CreditLog) Snapshot() []Credit {
	log.mu.Lock()
	defer log.mu.Unlock()

	snapshot := make([]Credit, 0, len(log.credits))
	for _, credit := range log.credits {
		snapshot = append(snapshot, *credit)
	}
	return snapshot
}

// Pending reports whether any credit is still unresolved.
func (log *CreditLog) Pending() bool {
	log.mu.Lock()
	defer log.mu.Unlock()

	for _, credit := range log.credits {
		if credit.State == CreditStatePending {
			return true
		}
	}
	return false
}
