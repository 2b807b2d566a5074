// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iqralabs/iqra/internal/platform/middleware"
	requestutil "github.com/iqralabs/iqra/internal/platform/request"
	"github.com/iqralabs/iqra/internal/platform/respond"
	"github.com/iqralabs/iqra/pkg/convert"
	"github.com/iqralabs/iqra/pkg/pagination"
)

// defaultLeaderboardSize bounds the public ranking when no limit is given.
const defaultLeaderboardSize = 10

// Handler implements wallet and leaderboard HTTP endpoints.
type Handler struct {
	ledgerService *Service
	minGasBalance uint64
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, minGasBalance uint64) *Handler {
	return &Handler{ledgerService: service, minGasBalance: minGasBalance}
}

// WalletRoutes returns the authenticated wallet routes.
//
// # Endpoints
//   - POST /register  : Enrolls the attached wallet on the ledger.
//   - POST /fund      : Explicit gas funding request, idempotent per wallet.
//   - GET  /profile   : Composite on-chain plus mirror reward view.
//   - GET  /balance   : Gas balance with a sufficiency verdict.
//   - GET  /{address} : Ledger identity behind an address; null when
//     unregistered.
func (handler *Handler) WalletRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/register", handler.register)
	router.Post("/fund", handler.fund)
	router.Get("/profile", handler.profile)
	router.Get("/balance", handler.balance)
	router.Get("/{address}", handler.identity)

	return router
}

// LeaderboardRoutes returns the public leaderboard routes.
func (handler *Handler) LeaderboardRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.leaderboard)
	return router
}

// register handles POST /api/v1/wallet/register requests.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.ledgerService.Register(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"registered": true})
}

// fund handles POST /api/v1/wallet/fund requests.
func (handler *Handler) fund(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.ledgerService.Fund(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"funded": true})
}

// identity handles GET /api/v1/wallet/{address} requests.
func (handler *Handler) identity(writer http.ResponseWriter, request *http.Request) {
	address := requestutil.ID(request, "address")

	user, err := handler.ledgerService.Identity(request.Context(), address)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"registered": user != nil,
		"identity":   user,
	})
}

// profile handles GET /api/v1/wallet/profile requests.
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.ledgerService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

// balance handles GET /api/v1/wallet/balance requests.
func (handler *Handler) balance(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	balance, sufficient, err := handler.ledgerService.Balance(request.Context(), userID, handler.minGasBalance)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"address":    balance.Address,
		"wei":        balance.Wei.String(),
		"sufficient": sufficient,
	})
}

// leaderboard handles GET /api/v1/leaderboard requests.
func (handler *Handler) leaderboard(writer http.ResponseWriter, request *http.Request) {
	limit := convert.ToIntD(request.URL.Query().Get("limit"), defaultLeaderboardSize)
	if limit < 1 || limit > pagination.MaxLimit {
		limit = defaultLeaderboardSize
	}

	entries, err := handler.ledgerService.Leaderboard(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"leaderboard": entries})
}
