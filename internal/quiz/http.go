// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package quiz

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iqralabs/iqra/internal/auth"
	"github.com/iqralabs/iqra/internal/platform/middleware"
	requestutil "github.com/iqralabs/iqra/internal/platform/request"
	"github.com/iqralabs/iqra/internal/platform/respond"
	"github.com/iqralabs/iqra/internal/platform/validate"
)

// Handler implements quiz curation HTTP endpoints.
type Handler struct {
	quizService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{quizService: service}
}

// Routes returns a [chi.Router] configured with quiz curation routes.
//
// # Endpoints
//   - POST / : Curates a new challenge for a book page (curator only).
//
// Readers never hit these routes; in-session challenges are served through
// the reader endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireRole(auth.UserRoleCurator))
		protected.Post("/", handler.create)
	})

	return router
}

// createRequest represents the JSON payload for curating a challenge.
type createRequest struct {
	BookID      string   `json:"book_id"`
	PageNumber  int      `json:"page_number"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

// create handles POST /api/v1/quizzes requests (curator only).
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.
		Required("book_id", input.BookID).
		UUID("book_id", input.BookID).
		Required("question", input.Question).
		Custom("page_number", input.PageNumber < 1, "must be a positive page number").
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	challenge, err := handler.quizService.CreateChallenge(request.Context(), CreateInput{
		BookID:      input.BookID,
		PageNumber:  input.PageNumber,
		Question:    input.Question,
		Options:     input.Options,
		AnswerIndex: input.AnswerIndex,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, challenge)
}
