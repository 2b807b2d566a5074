// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Command api is the entry point for the Iqra HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services: auth, catalogue, quiz, progress, ledger, reading.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iqralabs/iqra/internal/api"
	"github.com/iqralabs/iqra/internal/auth"
	"github.com/iqralabs/iqra/internal/book"
	"github.com/iqralabs/iqra/internal/funding"
	"github.com/iqralabs/iqra/internal/ledger"
	"github.com/iqralabs/iqra/internal/platform/config"
	"github.com/iqralabs/iqra/internal/platform/constants"
	"github.com/iqralabs/iqra/internal/platform/migration"
	pgstore "github.com/iqralabs/iqra/internal/platform/postgres"
	redisstore "github.com/iqralabs/iqra/internal/platform/redis"
	"github.com/iqralabs/iqra/internal/platform/sec"
	"github.com/iqralabs/iqra/internal/progress"
	"github.com/iqralabs/iqra/internal/quiz"
	"github.com/iqralabs/iqra/internal/reading"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "iqra"))
	slog.SetDefault(log)

	log.Info("[Iqra] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "iqra"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("ledger_enabled", cfg.LedgerEnabled()),
	)

	// rootCtx lives for the whole process; it backs long-running middleware
	// state like the rate-limiter cleanup loop.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup gets a 30s deadline so misconfiguration is caught quickly
	// rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health Handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	authService := auth.NewService(userRepository, sessionRepository, jwtSvc)
	authHandler := auth.NewHandler(authService)

	bookRepository := book.NewRepository(pool)
	bookService := book.NewService(bookRepository)
	bookHandler := book.NewHandler(bookService)

	quizRepository := quiz.NewRepository(pool)
	quizService := quiz.NewService(quizRepository, cfg.QuizSource)
	quizHandler := quiz.NewHandler(quizService)

	progressService := progress.NewService(
		progress.NewBlobStore(rdb, log),
		progress.NewMirrorRepository(pool),
	)

	// The ledger client stays nil without a configured gateway; reading then
	// runs mirror-only and wallet reads degrade gracefully.
	var ledgerClient ledger.Client
	if cfg.LedgerEnabled() {
		ledgerClient = ledger.NewGatewayClient(cfg.LedgerGatewayURL, cfg.LedgerContractAddress)
	} else {
		ledgerClient = ledger.NewGatewayClient("", "")
		log.Warn("no ledger gateway configured, rewards stay in the relational mirror")
	}

	fundingCoordinator := funding.NewCoordinator(
		funding.NewRepository(pool),
		funding.NewHTTPFunder(cfg.FundingServiceURL),
		ledgerClient,
		cfg.MinGasBalance,
		cfg.FundingWaitDelay,
		cfg.FundingMaxRetries,
	)

	ledgerService := ledger.NewService(ledgerClient, userRepository, rdb, fundingCoordinator)
	ledgerHandler := ledger.NewHandler(ledgerService, cfg.MinGasBalance)

	var readingLedger ledger.Client
	if cfg.LedgerEnabled() {
		readingLedger = ledgerClient
	}

	readingController := reading.NewController(
		bookRepository,
		quizService,
		progressService,
		userRepository,
		readingLedger,
		fundingCoordinator,
		reading.Config{
			QuizCadence:         cfg.QuizCadence,
			RewardToastCadence:  cfg.RewardToastCadence,
			PageCreditBatchSize: cfg.PageCreditBatchSize,
		},
		log,
	)
	readerHandler := reading.NewHandler(readingController)

	// Periodic cleanup of expired refresh sessions.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				if err := authService.PurgeExpiredSessions(rootCtx); err != nil {
					log.Warn("session cleanup failed", slog.Any("error", err))
				}
			}
		}
	}()

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Book:      bookHandler,
		Quiz:      quizHandler,
		Reader:    readerHandler,
		Ledger:    ledgerHandler,
	}

	server := api.NewServer(rootCtx, cfg, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Let detached ledger credits finish before the pools close.
	readingController.Wait()

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
