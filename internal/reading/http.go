// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package reading

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iqralabs/iqra/internal/platform/middleware"
	requestutil "github.com/iqralabs/iqra/internal/platform/request"
	"github.com/iqralabs/iqra/internal/platform/respond"
)

// Handler implements the reader HTTP endpoints.
type Handler struct {
	controller *Controller
}

// NewHandler constructs a new [Handler].
func NewHandler(controller *Controller) *Handler {
	return &Handler{controller: controller}
}

// Routes returns the authenticated reader routes.
//
// # Endpoints
//   - POST /{bookID}/open    : Starts or resumes a session.
//   - POST /{bookID}/advance : Turns to the next page.
//   - POST /{bookID}/back    : Turns to the previous page.
//   - POST /{bookID}/quiz         : Answers the pending quiz.
//   - POST /{bookID}/quiz/dismiss : Waives the pending quiz and its credit.
//   - POST /{bookID}/close        : Ends the session and flushes credits.
//   - GET  /{bookID}/credits      : Ledger credit log of the open session.
//   - GET  /library               : Progress overview across all books.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/library", handler.library)
	router.Post("/{bookID}/open", handler.open)
	router.Post("/{bookID}/advance", handler.advance)
	router.Post("/{bookID}/back", handler.back)
	router.Post("/{bookID}/quiz", handler.answerQuiz)
	router.Post("/{bookID}/quiz/dismiss", handler.dismissQuiz)
	router.Post("/{bookID}/close", handler.close)
	router.Get("/{bookID}/credits", handler.credits)

	return router
}

// subject extracts the authenticated reader and the target book.
func subject(request *http.Request) (userID, bookID string, err error) {
	userID, err = requestutil.RequiredUserID(request)
	if err != nil {
		return "", "", err
	}
	return userID, requestutil.ID(request, "bookID"), nil
}

// open handles POST /api/v1/reader/{bookID}/open requests.
func (handler *Handler) open(writer http.ResponseWriter, request *http.Request) {
	userID, bookID, err := subject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.controller.Open(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// advance handles POST /api/v1/reader/{bookID}/advance requests.
func (handler *Handler) advance(writer http.ResponseWriter, request *http.Request) {
	userID, bookID, err := subject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.controller.Advance(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// back handles POST /api/v1/reader/{bookID}/back requests.
func (handler *Handler) back(writer http.ResponseWriter, request *http.Request) {
	userID, bookID, err := subject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.controller.Back(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// answerRequest represents the JSON payload for answering a quiz.
type answerRequest struct {
	AnswerIndex int `json:"answer_index"`
}

// answerQuiz handles POST /api/v1/reader/{bookID}/quiz requests.
func (handler *Handler) answerQuiz(writer http.ResponseWriter, request *http.Request) {
	userID, bookID, err := subject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input answerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.controller.AnswerQuiz(request.Context(), userID, bookID, input.AnswerIndex)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, outcome)
}

// dismissQuiz handles POST /api/v1/reader/{bookID}/quiz/dismiss requests.
func (handler *Handler) dismissQuiz(writer http.ResponseWriter, request *http.Request) {
	userID, bookID, err := subject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.controller.DismissQuiz(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// close handles POST /api/v1/reader/{bookID}/close requests.
func (handler *Handler) close(writer http.ResponseWriter, request *http.Request) {
	userID, bookID, err := subject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	credits, err := handler.controller.Close(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"credits": credits})
}

// library handles GET /api/v1/reader/library requests.
func (handler *Handler) library(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rows, err := handler.controller.Library(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"library": rows})
}

// credits handles GET /api/v1/reader/{bookID}/credits requests.
func (handler *Handler) credits(writer http.ResponseWriter, request *http.Request) {
	userID, bookID, err := subject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	credits, err := handler.controller.Credits(userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"credits": credits})
}
