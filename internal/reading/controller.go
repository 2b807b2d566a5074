// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package reading

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iqralabs/iqra/internal/auth"
	"github.com/iqralabs/iqra/internal/book"
	"github.com/iqralabs/iqra/internal/ledger"
	"github.com/iqralabs/iqra/internal/platform/apperr"
	"github.com/iqralabs/iqra/internal/platform/constants"
	"github.com/iqralabs/iqra/internal/platform/ctxutil"
	"github.com/iqralabs/iqra/internal/progress"
	"github.com/iqralabs/iqra/internal/quiz"
)

// creditTimeout bounds one detached ledger write, funding included.
const creditTimeout = 60 * time.Second

// Config tunes the reward mechanics of the reading flow.
type Config struct {
	// QuizCadence fires a quiz on every Nth distinct page read.
	QuizCadence int
	// RewardToastCadence fires a celebration toast on every Nth distinct
	// page read.
	RewardToastCadence int
	// PageCreditBatchSize is how many first reads accumulate before a
	// ledger page-credit write is dispatched.
	PageCreditBatchSize int
}

// normalize replaces non-positive knobs with their defaults.
func (config Config) normalize() Config {
	if config.QuizCadence <= 0 {
		config.QuizCadence = 10
	}
	if config.RewardToastCadence <= 0 {
		config.RewardToastCadence = 5
	}
	if config.PageCreditBatchSize <= 0 {
		config.PageCreditBatchSize = 1
	}
	return config
}

// Controller orchestrates reading sessions.
type Controller struct {
	books           book.Repository
	quizzes         *quiz.Service
	progressService *progress.Service
	userRepository  auth.UserRepository

	// ledgerClient is nil when the deployment runs without a ledger; the
	// relational mirror then remains the only reward record.
	ledgerClient ledger.Client
	funding      ledger.GasEnsurer

	config Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	background sync.WaitGroup
}

// NewController constructs the reading session [Controller].
func NewController(
	books book.Repository,
	quizzes *quiz.Service,
	progressService *progress.Service,
	userRepository auth.UserRepository,
	ledgerClient ledger.Client,
	funding ledger.GasEnsurer,
	config Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		books:           books,
		quizzes:         quizzes,
		progressService: progressService,
		userRepository:  userRepository,
		ledgerClient:    ledgerClient,
		funding:         funding,
		config:          config.normalize(),
		logger:          logger,
		sessions:        make(map[string]*Session),
	}
}

// Wait blocks until all detached ledger writes have resolved. It is called
// on server shutdown so in-flight credits are never abandoned mid-write.
func (controller *Controller) Wait() {
	controller.background.Wait()
}

// # Session Operations

// Open starts or resumes a reading session and credits the landing page if
// it was never read before.
func (controller *Controller) Open(ctx context.Context, userID, bookID string) (*View, error) {
	session, err := controller.session(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	view := controller.creditPageLocked(ctx, session, session.record.CurrentPage)

	if err := controller.persistLocked(ctx, session); err != nil {
		return nil, err
	}

	return view, nil
}

// Advance turns to the next page. The first visit to a page earns credits;
// re-reads never do. Navigation stays free while a quiz is pending, but
// point-earning is suspended: pages visited then are left unread so their
// credit is only claimed on a revisit after the quiz resolves.
func (controller *Controller) Advance(ctx context.Context, userID, bookID string) (*View, error) {
	session, err := controller.openSession(userID, bookID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.record.CurrentPage >= session.totalPages {
		view := controller.viewLocked(session)
		view.Finished = true
		return view, nil
	}

	session.record.CurrentPage++

	var view *View
	if session.state == StateQuizPending {
		view = controller.viewLocked(session)
	} else {
		view = controller.creditPageLocked(ctx, session, session.record.CurrentPage)
	}

	if err := controller.persistLocked(ctx, session); err != nil {
		return nil, err
	}

	return view, nil
}

// Back turns to the previous page. Pages behind the reader are always
// already read, so going back never credits anything.
func (controller *Controller) Back(ctx context.Context, userID, bookID string) (*View, error) {
	session, err := controller.openSession(userID, bookID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.record.CurrentPage > 1 {
		session.record.CurrentPage--
		if err := controller.persistLocked(ctx, session); err != nil {
			return nil, err
		}
	}

	return controller.viewLocked(session), nil
}

// QuizOutcome reports a graded quiz back to the client.
type QuizOutcome struct {
	Correct bool `json:"correct"`
	// PointsAwarded is zero for wrong answers and for re-submissions; only
	// the first correct resolution pays out.
	PointsAwarded int   `json:"points_awarded"`
	View          *View `json:"session"`
}

// AnswerQuiz resolves the pending quiz. The first resolution is final: it
// alone decides whether the quiz credit is ever paid, and later submissions
// for the same page can never re-earn it.
func (controller *Controller) AnswerQuiz(ctx context.Context, userID, bookID string, answerIndex int) (*QuizOutcome, error) {
	session, err := controller.openSession(userID, bookID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != StateQuizPending {
		return nil, apperr.Conflict("No quiz is pending for this session")
	}

	result, err := controller.quizzes.Submit(ctx, userID, bookID, session.pendingQuizPage, answerIndex)
	if err != nil {
		return nil, err
	}

	session.record.MarkQuizCompleted(session.pendingQuizPage)
	session.state = StateReading
	session.pendingQuizPage = 0

	outcome := &QuizOutcome{Correct: result.Correct}

	if result.Correct && result.FirstResolution {
		outcome.PointsAwarded = constants.PointsPerQuizMirror
		controller.creditMirror(ctx, userID, constants.PointsPerQuizMirror, 0, 1)
		controller.dispatchQuizCredit(ctx, session)
	}

	// Pages visited while the quiz was pending earned nothing; resume
	// point-earning with the page now in front of the reader.
	outcome.View = controller.creditPageLocked(ctx, session, session.record.CurrentPage)

	if err := controller.persistLocked(ctx, session); err != nil {
		return nil, err
	}

	return outcome, nil
}

// DismissQuiz resolves the pending quiz without an answer. Dismissal is a
// final resolution: the quiz never re-fires for that page and its credit is
// forfeited, but point-earning on pages resumes immediately.
func (controller *Controller) DismissQuiz(ctx context.Context, userID, bookID string) (*View, error) {
	session, err := controller.openSession(userID, bookID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != StateQuizPending {
		return nil, apperr.Conflict("No quiz is pending for this session")
	}

	session.record.MarkQuizCompleted(session.pendingQuizPage)
	session.state = StateReading
	session.pendingQuizPage = 0

	view := controller.creditPageLocked(ctx, session, session.record.CurrentPage)

	if err := controller.persistLocked(ctx, session); err != nil {
		return nil, err
	}

	return view, nil
}

// Close flushes any batched page credits, persists progress, and drops the
// session from the registry.
func (controller *Controller) Close(ctx context.Context, userID, bookID string) ([]Credit, error) {
	session, err := controller.openSession(userID, bookID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	controller.flushPageCreditsLocked(ctx, session)
	persistErr := controller.persistLocked(ctx, session)
	credits := session.credits.Snapshot()
	session.mu.Unlock()

	if persistErr != nil {
		return nil, persistErr
	}

	controller.mu.Lock()
	delete(controller.sessions, key(userID, bookID))
	controller.mu.Unlock()

	return credits, nil
}

// Library returns the reader's progress across all books from the display
// mirror. It powers the "continue reading" shelf and needs no open session.
func (controller *Controller) Library(ctx context.Context, userID string) ([]*progress.MirrorRow, error) {
	return controller.progressService.Overview(ctx, userID)
}

// Credits returns the ledger credit log of an open session.
func (controller *Controller) Credits(userID, bookID string) ([]Credit, error) {
	session, err := controller.openSession(userID, bookID)
	if err != nil {
		return nil, err
	}
	return session.credits.Snapshot(), nil
}

// # Session Registry

// session returns the open session for the pair, creating one from stored
// progress when absent.
func (controller *Controller) session(ctx context.Context, userID, bookID string) (*Session, error) {
	controller.mu.Lock()
	if existing, ok := controller.sessions[key(userID, bookID)]; ok {
		controller.mu.Unlock()
		return existing, nil
	}
	controller.mu.Unlock()

	// Load outside the registry lock; book and progress reads can be slow.
	if _, err := controller.books.FindByID(ctx, bookID); err != nil {
		return nil, err
	}

	pages, err := controller.books.Pages(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("reading_controller_load_pages_failed: %w", err)
	}
	if len(pages) == 0 {
		return nil, apperr.Unprocessable("This book has no pages yet")
	}

	record, err := controller.progressService.Get(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if record.CurrentPage > len(pages) {
		record.CurrentPage = len(pages)
	}

	session := &Session{
		userID:     userID,
		bookID:     bookID,
		totalPages: len(pages),
		pages:      pages,
		state:      StateReading,
		record:     record,
		credits:    NewCreditLog(),
		startedAt:  time.Now(),
	}

	controller.mu.Lock()
	defer controller.mu.Unlock()
	if existing, ok := controller.sessions[key(userID, bookID)]; ok {
		// Another request opened the session first; use theirs.
		return existing, nil
	}
	controller.sessions[key(userID, bookID)] = session
	return session, nil
}

// openSession returns an existing session or a conflict error.
func (controller *Controller) openSession(userID, bookID string) (*Session, error) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	session, ok := controller.sessions[key(userID, bookID)]
	if !ok {
		return nil, apperr.Conflict("No open reading session for this book")
	}
	return session, nil
}

// # Credit Mechanics

// creditPageLocked registers a visit to the current page and returns the
// resulting view. Only a first read earns credits, counts toward cadences,
// or can trigger a quiz.
func (controller *Controller) creditPageLocked(ctx context.Context, session *Session, pageNumber int) *View {
	firstRead := session.record.MarkPageRead(pageNumber)
	view := controller.viewLocked(session)

	if !firstRead {
		return view
	}

	controller.creditMirror(ctx, session.userID, constants.PointsPerPage, 1, 0)

	session.uncreditedPages++
	if session.uncreditedPages >= controller.config.PageCreditBatchSize {
		controller.flushPageCreditsLocked(ctx, session)
	}

	pagesRead := session.record.PagesRead()

	if pagesRead%controller.config.RewardToastCadence == 0 {
		view.RewardToast = true
	}

	if pagesRead%controller.config.QuizCadence == 0 && !session.record.IsQuizCompleted(pageNumber) {
		challenge, err := controller.quizzes.ChallengeFor(ctx, session.bookID, pageNumber)
		if err != nil {
			// A missing challenge must not trap the reader on this page.
			ctxutil.GetLogger(ctx).Warn("quiz challenge unavailable",
				slog.String("book_id", session.bookID),
				slog.Int("page", pageNumber),
				slog.String("error", err.Error()),
			)
		} else {
			session.state = StateQuizPending
			session.pendingQuizPage = pageNumber
			view.State = StateQuizPending
			view.Quiz = challenge
		}
	}

	return view
}

// creditMirror updates the relational reward counters. The mirror is a
// display cache, so a failure here is logged and absorbed rather than
// failing the page turn.
func (controller *Controller) creditMirror(ctx context.Context, userID string, points, pages, quizzes int64) {
	if err := controller.userRepository.CreditPoints(ctx, userID, points, pages, quizzes); err != nil {
		ctxutil.GetLogger(ctx).Warn("reward mirror credit failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// flushPageCreditsLocked dispatches the accumulated page batch to the ledger.
func (controller *Controller) flushPageCreditsLocked(ctx context.Context, session *Session) {
	if session.uncreditedPages == 0 {
		return
	}
	pages := session.uncreditedPages
	session.uncreditedPages = 0

	controller.dispatch(ctx, session, CreditKindPages, pages, func(ctx context.Context, address string) (string, error) {
		return controller.ledgerClient.RecordPagesRead(ctx, address, pages)
	})
}

// dispatchQuizCredit dispatches a quiz-passed credit to the ledger.
func (controller *Controller) dispatchQuizCredit(ctx context.Context, session *Session) {
	controller.dispatch(ctx, session, CreditKindQuiz, 0, func(ctx context.Context, address string) (string, error) {
		return controller.ledgerClient.RecordQuizPassed(ctx, address)
	})
}

// dispatch runs one ledger write on a detached goroutine, reporting its
// lifecycle through the session credit log. The write uses a background
// context: the HTTP request that triggered it finishes immediately.
func (controller *Controller) dispatch(ctx context.Context, session *Session, kind CreditKind, pages int, write func(context.Context, string) (string, error)) {
	if controller.ledgerClient == nil {
		return
	}

	creditID := session.credits.Begin(kind, pages)
	logger := ctxutil.GetLogger(ctx)
	userID := session.userID

	controller.background.Add(1)
	go func() {
		defer controller.background.Done()

		writeCtx, cancel := context.WithTimeout(context.Background(), creditTimeout)
		defer cancel()
		writeCtx = ctxutil.WithLogger(writeCtx, logger)

		user, err := controller.userRepository.FindByID(writeCtx, userID)
		if err != nil {
			session.credits.Fail(creditID, "profile lookup failed")
			return
		}
		if user.WalletAddress == "" {
			session.credits.Fail(creditID, "no wallet attached")
			return
		}

		if err := controller.funding.EnsureFunded(writeCtx, user.WalletAddress); err != nil {
			session.credits.Fail(creditID, creditFailure(err))
			return
		}

		txHash, err := write(writeCtx, user.WalletAddress)
		if err != nil {
			session.credits.Fail(creditID, creditFailure(err))
			logger.Warn("ledger credit failed",
				slog.String("user_id", userID),
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
			)
			return
		}

		session.credits.Succeed(creditID, txHash)
	}()
}

// creditFailure renders an error for the credit log, preferring the stable
// taxonomy code over free-form text.
func creditFailure(err error) string {
	if appError := apperr.As(err); appError != nil {
		return appError.Code
	}
	return err.Error()
}

// # View Assembly

// viewLocked builds the client snapshot of a session.
func (controller *Controller) viewLocked(session *Session) *View {
	current := session.record.CurrentPage

	return &View{
		BookID:      session.bookID,
		State:       session.state,
		CurrentPage: current,
		TotalPages:  session.totalPages,
		PageContent: session.pages[current-1].Content,
		PagesRead:   session.record.PagesRead(),
	}
}

// persistLocked writes the session's progress record through the progress
// service.
func (controller *Controller) persistLocked(ctx context.Context, session *Session) error {
	if err := controller.progressService.Put(ctx, session.userID, session.bookID, session.record); err != nil {
		return fmt.Errorf("reading_controller_persist_failed: %w", err)
	}
	return nil
}
