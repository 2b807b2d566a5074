// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package reading_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqralabs/iqra/internal/auth"
	"github.com/iqralabs/iqra/internal/book"
	"github.com/iqralabs/iqra/internal/ledger"
	"github.com/iqralabs/iqra/internal/platform/apperr"
	"github.com/iqralabs/iqra/internal/progress"
	"github.com/iqralabs/iqra/internal/quiz"
	"github.com/iqralabs/iqra/internal/reading"
)

const (
	testUserID = "user-1"
	testBookID = "book-1"
)

// # Fakes

// memoryBooks serves a single fixed book.
type memoryBooks struct {
	book  *book.Book
	pages []*book.Page
}

func newMemoryBooks(totalPages int) *memoryBooks {
	pages := make([]*book.Page, 0, totalPages)
	for number := 1; number <= totalPages; number++ {
		pages = append(pages, &book.Page{
			ID:         fmt.Sprintf("page-%d", number),
			BookID:     testBookID,
			PageNumber: number,
			Content:    fmt.Sprintf("Content of page %d.", number),
		})
	}
	return &memoryBooks{
		book:  &book.Book{ID: testBookID, Title: "The Long Road", TotalPages: totalPages},
		pages: pages,
	}
}

func (repo *memoryBooks) List(context.Context, book.Filter, int, int) ([]*book.Book, int, error) {
	return []*book.Book{repo.book}, 1, nil
}

func (repo *memoryBooks) FindByID(_ context.Context, id string) (*book.Book, error) {
	if id != repo.book.ID {
		return nil, apperr.NotFound("Book")
	}
	return repo.book, nil
}

func (repo *memoryBooks) FindBySlug(context.Context, string) (*book.Book, error) {
	return repo.book, nil
}

func (repo *memoryBooks) Pages(context.Context, string) ([]*book.Page, error) {
	return repo.pages, nil
}

func (repo *memoryBooks) Create(context.Context, *book.Book, []*book.Page) error {
	return nil
}

// memoryBlobStore is an in-memory progress blob store. Blobs round-trip
// through JSON like the Redis store's, so loads return stored state rather
// than pointers shared with the session.
type memoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{blobs: make(map[string][]byte)}
}

func (store *memoryBlobStore) Load(_ context.Context, subjectID string) (progress.Blob, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if raw, ok := store.blobs[subjectID]; ok {
		return progress.DecodeBlob(raw)
	}
	return progress.Blob{}, nil
}

func (store *memoryBlobStore) Save(_ context.Context, subjectID string, blob progress.Blob) error {
	raw, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	store.blobs[subjectID] = raw
	return nil
}

// memoryMirror records mirror upserts.
type memoryMirror struct {
	mu   sync.Mutex
	rows map[string]*progress.MirrorRow
}

func newMemoryMirror() *memoryMirror {
	return &memoryMirror{rows: make(map[string]*progress.MirrorRow)}
}

func (mirror *memoryMirror) Upsert(_ context.Context, row *progress.MirrorRow) error {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	mirror.rows[row.UserID+"|"+row.BookID] = row
	return nil
}

func (mirror *memoryMirror) ListByUser(_ context.Context, userID string) ([]*progress.MirrorRow, error) {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	var rows []*progress.MirrorRow
	for _, row := range mirror.rows {
		if row.UserID == userID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// memoryQuizzes backs the quiz service; no curated content, pool only.
type memoryQuizzes struct {
	mu        sync.Mutex
	responses map[string]*quiz.Response
}

func newMemoryQuizzes() *memoryQuizzes {
	return &memoryQuizzes{responses: make(map[string]*quiz.Response)}
}

func (repo *memoryQuizzes) FindByBookAndPage(context.Context, string, int) (*quiz.Challenge, error) {
	return nil, apperr.NotFound("Quiz")
}

func (repo *memoryQuizzes) Create(context.Context, *quiz.Challenge) error { return nil }

func (repo *memoryQuizzes) RecordResponse(_ context.Context, response *quiz.Response) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%d", response.UserID, response.BookID, response.PageNumber)
	if _, exists := repo.responses[key]; exists {
		return false, nil
	}
	repo.responses[key] = response
	return true, nil
}

// memoryUsers is a single-user profile store.
type memoryUsers struct {
	mu   sync.Mutex
	user *auth.User
}

func newMemoryUsers(walletAddress string) *memoryUsers {
	return &memoryUsers{user: &auth.User{
		ID:            testUserID,
		Username:      "amina",
		WalletAddress: walletAddress,
		Role:          auth.UserRoleMember,
	}}
}

func (repo *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if id != repo.user.ID {
		return nil, apperr.NotFound("User")
	}
	clone := *repo.user
	return &clone, nil
}

func (repo *memoryUsers) FindByEmail(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) FindByUsername(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) FindByWalletAddress(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) Create(context.Context, *auth.User) error { return nil }

func (repo *memoryUsers) Update(context.Context, *auth.User) error { return nil }

func (repo *memoryUsers) UpdatePassword(context.Context, string, string) error { return nil }

func (repo *memoryUsers) AttachWallet(context.Context, string, string) error { return nil }

func (repo *memoryUsers) CreditPoints(_ context.Context, _ string, points, pages, quizzes int64) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.user.TotalPoints += points
	repo.user.PagesRead += pages
	repo.user.QuizzesPassed += quizzes
	return nil
}

func (repo *memoryUsers) TopByPoints(context.Context, int) ([]*auth.User, error) {
	return []*auth.User{repo.user}, nil
}

// fakeLedger records reward writes and can be told to fail.
type fakeLedger struct {
	mu         sync.Mutex
	pageWrites []int
	quizWrites int
	failWith   error
}

func (client *fakeLedger) RegisterUser(context.Context, ledger.Identity) error { return nil }

func (client *fakeLedger) RecordPagesRead(_ context.Context, _ string, pages int) (string, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.failWith != nil {
		return "", client.failWith
	}
	client.pageWrites = append(client.pageWrites, pages)
	return fmt.Sprintf("0xtx-%d", len(client.pageWrites)), nil
}

func (client *fakeLedger) RecordQuizPassed(context.Context, string) (string, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.failWith != nil {
		return "", client.failWith
	}
	client.quizWrites++
	return "0xquiz", nil
}

func (client *fakeLedger) GetUser(context.Context, string) (*ledger.User, error) {
	return nil, nil
}

func (client *fakeLedger) IsUserRegistered(context.Context, string) (bool, error) {
	return true, nil
}

func (client *fakeLedger) GetLeaderboard(context.Context, int) ([]ledger.LeaderboardEntry, error) {
	return nil, nil
}

func (client *fakeLedger) CheckBalance(context.Context, string) (ledger.Balance, error) {
	return ledger.Balance{}, nil
}

func (client *fakeLedger) totalPagesCredited() int {
	client.mu.Lock()
	defer client.mu.Unlock()
	total := 0
	for _, pages := range client.pageWrites {
		total += pages
	}
	return total
}

// fakeFunding counts EnsureFunded calls.
type fakeFunding struct {
	mu    sync.Mutex
	calls int
}

func (funding *fakeFunding) EnsureFunded(context.Context, string) error {
	funding.mu.Lock()
	defer funding.mu.Unlock()
	funding.calls++
	return nil
}

// # Harness

type harness struct {
	controller *reading.Controller
	ledger     *fakeLedger
	users      *memoryUsers
	funding    *fakeFunding
	mirror     *memoryMirror
}

func newHarness(t *testing.T, totalPages int, config reading.Config) *harness {
	t.Helper()

	ledgerClient := &fakeLedger{}
	users := newMemoryUsers("0xabc")
	funding := &fakeFunding{}
	mirror := newMemoryMirror()

	controller := reading.NewController(
		newMemoryBooks(totalPages),
		quiz.NewService(newMemoryQuizzes(), quiz.SourcePool),
		progress.NewService(newMemoryBlobStore(), mirror),
		users,
		ledgerClient,
		funding,
		config,
		slog.Default(),
	)

	return &harness{
		controller: controller,
		ledger:     ledgerClient,
		users:      users,
		funding:    funding,
		mirror:     mirror,
	}
}

// advanceTo turns pages until the reader stands on the target page,
// answering any quiz that fires along the way.
func advanceTo(t *testing.T, h *harness, target int) *reading.View {
	t.Helper()

	view, err := h.controller.Open(context.Background(), testUserID, testBookID)
	require.NoError(t, err)

	for view.CurrentPage < target {
		if view.State == reading.StateQuizPending {
			outcome, err := h.controller.AnswerQuiz(context.Background(), testUserID, testBookID, view.Quiz.AnswerIndex)
			require.NoError(t, err)
			view = outcome.View
			continue
		}
		view, err = h.controller.Advance(context.Background(), testUserID, testBookID)
		require.NoError(t, err)
	}
	return view
}

// # Tests

/*
TestController_OpenCreditsLandingPage verifies the landing page counts as a
first read and its ledger credit resolves with a transaction hash.
*/
func TestController_OpenCreditsLandingPage(t *testing.T) {
	h := newHarness(t, 12, reading.Config{})

	view, err := h.controller.Open(context.Background(), testUserID, testBookID)
	require.NoError(t, err)

	assert.Equal(t, 1, view.CurrentPage)
	assert.Equal(t, 1, view.PagesRead)
	assert.Equal(t, reading.StateReading, view.State)
	assert.Equal(t, "Content of page 1.", view.PageContent)

	h.controller.Wait()

	credits, err := h.controller.Credits(testUserID, testBookID)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, reading.CreditStateSuccess, credits[0].State)
	assert.Equal(t, "0xtx-1", credits[0].TxHash)
	assert.Equal(t, 1, h.ledger.totalPagesCredited())
}

/*
TestController_RereadNeverCredits walks forward, back, and forward again and
checks that revisited pages earn nothing a second time.
*/
func TestController_RereadNeverCredits(t *testing.T) {
	h := newHarness(t, 12, reading.Config{})

	advanceTo(t, h, 4) // pages 1-4 read

	view, err := h.controller.Back(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.CurrentPage)
	assert.Equal(t, 4, view.PagesRead)

	view, err = h.controller.Advance(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 4, view.CurrentPage)
	assert.Equal(t, 4, view.PagesRead, "re-reading page 4 must not count again")

	h.controller.Wait()
	assert.Equal(t, 4, h.ledger.totalPagesCredited(), "exactly one ledger credit per distinct page")

	user, err := h.users.FindByID(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), user.PagesRead)
	assert.Equal(t, int64(4), user.TotalPoints)
}

/*
TestController_QuizSuspendsCrediting drives the reader to the quiz cadence
boundary and checks navigation stays free while point-earning pauses until
the quiz resolves.
*/
func TestController_QuizSuspendsCrediting(t *testing.T) {
	h := newHarness(t, 12, reading.Config{QuizCadence: 3})

	view := advanceTo(t, h, 3)
	require.Equal(t, reading.StateQuizPending, view.State)
	require.NotNil(t, view.Quiz)
	assert.Equal(t, 3, view.Quiz.PageNumber)
	challenge := view.Quiz

	// Navigation stays free while the quiz waits, but the page visited now
	// earns nothing.
	view, err := h.controller.Advance(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 4, view.CurrentPage)
	assert.Equal(t, reading.StateQuizPending, view.State)
	assert.Equal(t, 3, view.PagesRead, "no credit while the quiz is pending")

	outcome, err := h.controller.AnswerQuiz(context.Background(), testUserID, testBookID, challenge.AnswerIndex)
	require.NoError(t, err)
	assert.True(t, outcome.Correct)
	assert.Equal(t, 3, outcome.PointsAwarded)
	assert.Equal(t, reading.StateReading, outcome.View.State)
	assert.Equal(t, 4, outcome.View.PagesRead, "the page in front of the reader is credited on resolution")

	h.controller.Wait()
	assert.Equal(t, 1, h.ledger.quizWrites)
}

/*
TestController_WrongAnswerNeverPays checks a wrong first answer closes the
quiz without credit, and that the first resolution stays final.
*/
func TestController_WrongAnswerNeverPays(t *testing.T) {
	h := newHarness(t, 12, reading.Config{QuizCadence: 3})

	view := advanceTo(t, h, 3)
	require.NotNil(t, view.Quiz)

	wrongIndex := (view.Quiz.AnswerIndex + 1) % len(view.Quiz.Options)
	outcome, err := h.controller.AnswerQuiz(context.Background(), testUserID, testBookID, wrongIndex)
	require.NoError(t, err)
	assert.False(t, outcome.Correct)
	assert.Zero(t, outcome.PointsAwarded)

	// The quiz is resolved; there is nothing left to answer.
	_, err = h.controller.AnswerQuiz(context.Background(), testUserID, testBookID, view.Quiz.AnswerIndex)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	h.controller.Wait()
	assert.Zero(t, h.ledger.quizWrites, "a wrong answer never reaches the ledger")
}

/*
TestController_DismissQuizForfeitsCredit waives a pending quiz and checks the
resolution is final while page crediting resumes.
*/
func TestController_DismissQuizForfeitsCredit(t *testing.T) {
	h := newHarness(t, 12, reading.Config{QuizCadence: 3})

	view := advanceTo(t, h, 3)
	require.Equal(t, reading.StateQuizPending, view.State)
	require.NotNil(t, view.Quiz)
	challenge := view.Quiz

	view, err := h.controller.DismissQuiz(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, reading.StateReading, view.State)

	// Dismissal is final; there is nothing left to answer.
	_, err = h.controller.AnswerQuiz(context.Background(), testUserID, testBookID, challenge.AnswerIndex)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	// Page crediting resumes immediately.
	view, err = h.controller.Advance(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 4, view.PagesRead)

	h.controller.Wait()
	assert.Zero(t, h.ledger.quizWrites, "a dismissed quiz never pays out")

	user, err := h.users.FindByID(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.QuizzesPassed)
}

/*
TestController_DefaultCadenceTwelvePages walks a 12-page book at the default
cadence and checks exactly one quiz fires, on the 10th distinct page.
*/
func TestController_DefaultCadenceTwelvePages(t *testing.T) {
	h := newHarness(t, 12, reading.Config{})

	view, err := h.controller.Open(context.Background(), testUserID, testBookID)
	require.NoError(t, err)

	quizzes := 0
	for view.PagesRead < 12 {
		if view.State == reading.StateQuizPending {
			quizzes++
			assert.Equal(t, 10, view.PagesRead, "the quiz fires on the 10th distinct page")
			assert.Equal(t, 10, view.Quiz.PageNumber)

			outcome, err := h.controller.AnswerQuiz(context.Background(), testUserID, testBookID, view.Quiz.AnswerIndex)
			require.NoError(t, err)
			view = outcome.View
			continue
		}

		view, err = h.controller.Advance(context.Background(), testUserID, testBookID)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, quizzes, "a 12-page book holds exactly one quiz at cadence 10")
	assert.Equal(t, 12, view.PagesRead)
}

/*
TestController_RewardToastCadence checks the celebration fires on every Nth
distinct page.
*/
func TestController_RewardToastCadence(t *testing.T) {
	h := newHarness(t, 12, reading.Config{RewardToastCadence: 5})

	view := advanceTo(t, h, 4)
	assert.False(t, view.RewardToast)

	view, err := h.controller.Advance(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 5, view.PagesRead)
	assert.True(t, view.RewardToast, "the 5th distinct page celebrates")

	view, err = h.controller.Advance(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.False(t, view.RewardToast)
}

/*
TestController_LedgerFailureDoesNotBlockReading turns pages against a dead
ledger and checks reading continues while credits report errors.
*/
func TestController_LedgerFailureDoesNotBlockReading(t *testing.T) {
	h := newHarness(t, 12, reading.Config{})
	h.ledger.failWith = apperr.TransportError("record_pages_read", assert.AnError)

	view := advanceTo(t, h, 3)
	assert.Equal(t, 3, view.CurrentPage)
	assert.Equal(t, 3, view.PagesRead, "page turns never wait on the ledger")

	h.controller.Wait()

	credits, err := h.controller.Credits(testUserID, testBookID)
	require.NoError(t, err)
	require.Len(t, credits, 3)
	for _, credit := range credits {
		assert.Equal(t, reading.CreditStateError, credit.State)
		assert.Equal(t, "TRANSPORT_ERROR", credit.Error)
	}
}

/*
TestController_PageCreditBatching accumulates first reads and checks the
ledger write only goes out when the batch is full or the session closes.
*/
func TestController_PageCreditBatching(t *testing.T) {
	h := newHarness(t, 12, reading.Config{PageCreditBatchSize: 4})

	advanceTo(t, h, 3) // 3 first reads, batch of 4 not reached
	h.controller.Wait()
	assert.Zero(t, h.ledger.totalPagesCredited())

	credits, err := h.controller.Close(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	require.Len(t, credits, 1)

	h.controller.Wait()
	assert.Equal(t, 3, h.ledger.totalPagesCredited(), "close flushes the partial batch")
}

/*
TestController_NoWalletCreditsFail checks a reader without a wallet keeps
reading while ledger credits fail fast.
*/
func TestController_NoWalletCreditsFail(t *testing.T) {
	h := newHarness(t, 12, reading.Config{})
	h.users.user.WalletAddress = ""

	view, err := h.controller.Open(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.PagesRead)

	h.controller.Wait()

	credits, err := h.controller.Credits(testUserID, testBookID)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, reading.CreditStateError, credits[0].State)
	assert.Equal(t, "no wallet attached", credits[0].Error)
	assert.Zero(t, h.funding.calls)
}

/*
TestController_ProgressSurvivesSessions closes a session and reopens it,
checking the reader resumes at the same page with the same read history.
*/
func TestController_ProgressSurvivesSessions(t *testing.T) {
	h := newHarness(t, 12, reading.Config{})

	advanceTo(t, h, 6)
	_, err := h.controller.Close(context.Background(), testUserID, testBookID)
	require.NoError(t, err)

	view, err := h.controller.Open(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 6, view.CurrentPage)
	assert.Equal(t, 6, view.PagesRead, "reopening never re-credits old pages")

	h.controller.Wait()
	assert.Equal(t, 6, h.ledger.totalPagesCredited())
}

/*
TestController_ResumesWhereReaderStopped navigates backwards before closing
and checks the next session resumes at that page, not at the furthest page
ever reached.
*/
func TestController_ResumesWhereReaderStopped(t *testing.T) {
	h := newHarness(t, 12, reading.Config{})

	advanceTo(t, h, 5)

	view, err := h.controller.Back(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	view, err = h.controller.Back(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.CurrentPage)

	_, err = h.controller.Close(context.Background(), testUserID, testBookID)
	require.NoError(t, err)

	view, err = h.controller.Open(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.CurrentPage, "the reader resumes on the page they stopped at")
	assert.Equal(t, 5, view.PagesRead, "read history is untouched by backward navigation")
}

/*
TestController_FinishedBook checks advancing past the last page reports
completion instead of erroring.
*/
func TestController_FinishedBook(t *testing.T) {
	h := newHarness(t, 3, reading.Config{})

	view := advanceTo(t, h, 3)
	assert.Equal(t, 3, view.CurrentPage)

	view, err := h.controller.Advance(context.Background(), testUserID, testBookID)
	require.NoError(t, err)
	assert.True(t, view.Finished)
	assert.Equal(t, 3, view.CurrentPage)
}

/*
TestController_RequiresOpenSession checks navigation without an open session
is rejected.
*/
func TestController_RequiresOpenSession(t *testing.T) {
	h := newHarness(t, 12, reading.Config{})

	_, err := h.controller.Advance(context.Background(), testUserID, testBookID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	_, err = h.controller.Open(context.Background(), testUserID, "missing-book")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
