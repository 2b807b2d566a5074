// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iqralabs/iqra/internal/auth"
	"github.com/iqralabs/iqra/internal/platform/apperr"
	"github.com/iqralabs/iqra/internal/platform/constants"
	"github.com/iqralabs/iqra/internal/platform/ctxutil"
	"github.com/iqralabs/iqra/pkg/slice"
)

// profileCacheTTL bounds how stale a cached on-chain profile may be.
const profileCacheTTL = 30 * time.Second

// GasEnsurer guarantees an address can pay transaction fees before a write.
// The funding coordinator implements it.
type GasEnsurer interface {
	EnsureFunded(ctx context.Context, address string) error
}

// Service implements wallet and leaderboard use cases on top of the ledger.
type Service struct {
	client         Client
	userRepository auth.UserRepository
	cache          *redis.Client
	funding        GasEnsurer
}

// NewService constructs a new ledger [Service].
func NewService(client Client, userRepository auth.UserRepository, cache *redis.Client, funding GasEnsurer) *Service {
	return &Service{
		client:         client,
		userRepository: userRepository,
		cache:          cache,
		funding:        funding,
	}
}

// Register enrolls the reader's attached wallet on the ledger.
//
// # Business Rules
//   - The reader must have attached a wallet address first.
//   - Gas funding is ensured before the registration write.
//   - [apperr.AlreadyRegistered] surfaces to the caller unchanged; the
//     client decides whether to treat it as a soft success.
func (service *Service) Register(ctx context.Context, userID string) error {
	// ── 1. Resolve Identity ───────────────────────────────────────────────

	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.WalletAddress == "" {
		return apperr.Unprocessable("Attach a wallet before registering on the ledger")
	}

	// ── 2. Fund & Register ────────────────────────────────────────────────

	if err := service.funding.EnsureFunded(ctx, user.WalletAddress); err != nil {
		return err
	}

	if err := service.client.RegisterUser(ctx, Identity{
		Address:  user.WalletAddress,
		Username: user.Username,
	}); err != nil {
		return err
	}

	service.invalidateProfile(ctx, user.WalletAddress)
	return nil
}

// Fund explicitly tops up the reader's wallet with gas. The coordinator
// makes it idempotent: an already-funded wallet returns immediately.
func (service *Service) Fund(ctx context.Context, userID string) error {
	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.WalletAddress == "" {
		return apperr.Unprocessable("Attach a wallet before requesting gas funding")
	}

	return service.funding.EnsureFunded(ctx, user.WalletAddress)
}

// Identity returns the ledger identity behind an address. A nil identity
// means the address was never registered; that is a state, not an error.
func (service *Service) Identity(ctx context.Context, address string) (*User, error) {
	return service.client.GetUser(ctx, address)
}

// WalletProfile is the composite wallet view returned to clients.
type WalletProfile struct {
	Registered bool   `json:"registered"`
	Address    string `json:"address,omitempty"`
	// OnChain is nil until the wallet is registered on the ledger.
	OnChain *User `json:"on_chain,omitempty"`
	// Mirror carries the relational reward counters, always present.
	Mirror MirrorStats `json:"mirror"`
}

// MirrorStats is the relational reward view kept alongside the chain.
type MirrorStats struct {
	Points        int64 `json:"points"`
	PagesRead     int64 `json:"pages_read"`
	QuizzesPassed int64 `json:"quizzes_passed"`
}

// Profile returns the reader's wallet state.
//
// An unregistered or wallet-less reader still gets a profile built from the
// relational mirror; absence on the chain is a state, not an error.
func (service *Service) Profile(ctx context.Context, userID string) (*WalletProfile, error) {
	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &WalletProfile{
		Address: user.WalletAddress,
		Mirror: MirrorStats{
			Points:        user.TotalPoints,
			PagesRead:     user.PagesRead,
			QuizzesPassed: user.QuizzesPassed,
		},
	}

	if user.WalletAddress == "" {
		return profile, nil
	}

	onChain, err := service.cachedUser(ctx, user.WalletAddress)
	if err != nil {
		// Reads degrade to the mirror when the ledger is unreachable;
		// only writes surface chain failures.
		ctxutil.GetLogger(ctx).Warn("ledger profile unavailable, serving mirror only",
			slog.String("address", user.WalletAddress),
			slog.String("error", err.Error()),
		)
		return profile, nil
	}

	profile.Registered = onChain != nil
	profile.OnChain = onChain
	return profile, nil
}

// Leaderboard returns the reward ranking, preferring the chain and falling
// back to the relational mirror when the ledger is unreachable.
func (service *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	entries, err := service.client.GetLeaderboard(ctx, limit)
	if err == nil {
		return entries, nil
	}

	ctxutil.GetLogger(ctx).Warn("ledger leaderboard unavailable, serving mirror",
		slog.String("error", err.Error()),
	)

	topReaders, mirrorErr := service.userRepository.TopByPoints(ctx, limit)
	if mirrorErr != nil {
		// The mirror failing too means there is nothing left to serve.
		return nil, fmt.Errorf("ledger_service_leaderboard_failed: %w", errors.Join(err, mirrorErr))
	}

	entries = slice.Map(topReaders, func(reader *auth.User) LeaderboardEntry {
		return LeaderboardEntry{
			Username: reader.Username,
			Points:   reader.TotalPoints,
		}
	})
	for index := range entries {
		entries[index].Rank = index + 1
	}

	return entries, nil
}

// Balance returns the reader's gas balance and whether it clears the
// given minimum threshold.
func (service *Service) Balance(ctx context.Context, userID string, minGasBalance uint64) (Balance, bool, error) {
	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return Balance{}, false, err
	}
	if user.WalletAddress == "" {
		return Balance{}, false, apperr.Unprocessable("No wallet attached to this profile")
	}

	balance, err := service.client.CheckBalance(ctx, user.WalletAddress)
	if err != nil {
		return Balance{}, false, err
	}

	return balance, !balance.Below(minGasBalance), nil
}

// # Profile Cache

// cachedUser reads the on-chain profile through the Redis cache.
func (service *Service) cachedUser(ctx context.Context, address string) (*User, error) {
	key := constants.RedisPrefixLedgerProfile + address

	raw, err := service.cache.Get(ctx, key).Bytes()
	if err == nil {
		cached := &User{}
		if json.Unmarshal(raw, cached) == nil {
			return cached, nil
		}
		// Unparseable cache entries fall through to a live read.
	}

	onChain, err := service.client.GetUser(ctx, address)
	if err != nil {
		return nil, err
	}
	if onChain == nil {
		return nil, nil
	}

	if payload, err := json.Marshal(onChain); err == nil {
		_ = service.cache.Set(ctx, key, payload, profileCacheTTL).Err()
	}

	return onChain, nil
}

// invalidateProfile drops the cached on-chain profile after a write.
func (service *Service) invalidateProfile(ctx context.Context, address string) {
	_ = service.cache.Del(ctx, constants.RedisPrefixLedgerProfile+address).Err()
}
