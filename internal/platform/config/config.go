// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Ledger) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Iqra API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — holds the durable reading-progress blob.
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for session and identity signing
	SessionSecret  string `env:"SESSION_SECRET,required"`
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Points Ledger (on-chain contract gateway).
	// LedgerGatewayURL is empty when no ledger is configured; the service then
	// runs with the relational mirror only.
	LedgerGatewayURL      string `env:"LEDGER_GATEWAY_URL"`
	LedgerContractAddress string `env:"LEDGER_CONTRACT_ADDRESS"`

	// Custodial gas funding service (external HTTP endpoint).
	FundingServiceURL string `env:"FUNDING_SERVICE_URL"`

	// MinGasBalance is the native-currency balance (in wei) below which a
	// ledger write is preceded by an auto-funding request.
	MinGasBalance uint64 `env:"MIN_GAS_BALANCE" envDefault:"10000000000000000"`

	// FundingWaitDelay is how long to wait after a funding transfer before
	// re-checking the balance (funding is indexed asynchronously).
	FundingWaitDelay time.Duration `env:"FUNDING_WAIT_DELAY" envDefault:"2s"`

	// FundingMaxRetries bounds the balance re-check attempts after funding.
	FundingMaxRetries int `env:"FUNDING_MAX_RETRIES" envDefault:"3"`

	// Reading session policy.
	// QuizCadence presents a comprehension quiz every Nth first-read.
	QuizCadence int `env:"QUIZ_CADENCE" envDefault:"10"`

	// QuizSource selects where quiz questions come from: "database" looks up a
	// per-page quiz row, "pool" draws from the built-in question pool.
	QuizSource string `env:"QUIZ_SOURCE" envDefault:"pool"`

	// RewardToastCadence shows a cosmetic reward message every Nth first-read.
	RewardToastCadence int `env:"REWARD_TOAST_CADENCE" envDefault:"5"`

	// PageCreditBatchSize is how many page credits a single ledger write
	// carries. Kept at 1 so the on-chain total matches the displayed counter.
	PageCreditBatchSize int `env:"PAGE_CREDIT_BATCH_SIZE" envDefault:"1"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LedgerEnabled reports whether an on-chain points ledger is configured.
// When false, points live only in the relational mirror.
func (c *Config) LedgerEnabled() bool {
	return c.LedgerGatewayURL != "" && c.LedgerContractAddress != ""
}
