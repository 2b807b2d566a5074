// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// HTTP delivery layer for the reading catalogue.

package book

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iqralabs/iqra/internal/auth"
	"github.com/iqralabs/iqra/internal/platform/middleware"
	requestutil "github.com/iqralabs/iqra/internal/platform/request"
	"github.com/iqralabs/iqra/internal/platform/respond"
	"github.com/iqralabs/iqra/internal/platform/validate"
	"github.com/iqralabs/iqra/pkg/pagination"
)

// Handler implements catalogue HTTP endpoints.
type Handler struct {
	bookService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{bookService: service}
}

// Routes returns a [chi.Router] configured with catalogue routes.
//
// # Endpoints
//   - GET  /          : Paginated catalogue listing with search.
//   - GET  /{bookID}  : Book detail including all pages.
//   - POST /          : Publishes a new book (curator only).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/{bookID}", handler.get)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireRole(auth.UserRoleCurator))
		protected.Post("/", handler.create)
	})

	return router
}

// list handles GET /api/v1/books requests.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := Filter{
		Search:   request.URL.Query().Get("search"),
		Category: request.URL.Query().Get("category"),
	}

	books, total, err := handler.bookService.List(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(params.Page, params.Limit, total))
}

// get handles GET /api/v1/books/{bookID} requests.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.ID(request, "bookID")

	foundBook, pages, err := handler.bookService.Get(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"book":  foundBook,
		"pages": pages,
	})
}

// createRequest represents the JSON payload for publishing a book.
type createRequest struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Category    string   `json:"category"`
	CoverColor  string   `json:"cover_color"`
	Description string   `json:"description"`
	Pages       []string `json:"pages"`
}

// create handles POST /api/v1/books requests (curator only).
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.
		Required("title", input.Title).
		Required("author", input.Author).
		MaxLen("title", input.Title, 200).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.bookService.Create(request.Context(), CreateInput{
		Title:        input.Title,
		Author:       input.Author,
		Category:     input.Category,
		CoverColor:   input.CoverColor,
		Description:  input.Description,
		PageContents: input.Pages,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}
