// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqralabs/iqra/internal/auth"
	"github.com/iqralabs/iqra/internal/ledger"
	"github.com/iqralabs/iqra/internal/platform/apperr"
)

// stubUsers serves one profile by ID.
type stubUsers struct {
	user *auth.User
}

func (repo *stubUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	if repo.user == nil || id != repo.user.ID {
		return nil, apperr.NotFound("User")
	}
	return repo.user, nil
}

func (repo *stubUsers) FindByEmail(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

func (repo *stubUsers) FindByUsername(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

func (repo *stubUsers) FindByWalletAddress(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

func (repo *stubUsers) Create(context.Context, *auth.User) error { return nil }

func (repo *stubUsers) Update(context.Context, *auth.User) error { return nil }

func (repo *stubUsers) UpdatePassword(context.Context, string, string) error { return nil }

func (repo *stubUsers) AttachWallet(context.Context, string, string) error { return nil }

func (repo *stubUsers) CreditPoints(context.Context, string, int64, int64, int64) error {
	return nil
}

func (repo *stubUsers) TopByPoints(context.Context, int) ([]*auth.User, error) {
	return nil, nil
}

// stubClient answers identity lookups from a fixed map.
type stubClient struct {
	identities map[string]*ledger.User
}

func (client *stubClient) RegisterUser(context.Context, ledger.Identity) error { return nil }

func (client *stubClient) RecordPagesRead(context.Context, string, int) (string, error) {
	return "", nil
}

func (client *stubClient) RecordQuizPassed(context.Context, string) (string, error) {
	return "", nil
}

func (client *stubClient) GetUser(_ context.Context, address string) (*ledger.User, error) {
	return client.identities[address], nil
}

func (client *stubClient) IsUserRegistered(_ context.Context, address string) (bool, error) {
	return client.identities[address] != nil, nil
}

func (client *stubClient) GetLeaderboard(context.Context, int) ([]ledger.LeaderboardEntry, error) {
	return nil, nil
}

func (client *stubClient) CheckBalance(context.Context, string) (ledger.Balance, error) {
	return ledger.Balance{}, nil
}

// stubEnsurer counts funding calls.
type stubEnsurer struct {
	calls     int
	addresses []string
}

func (ensurer *stubEnsurer) EnsureFunded(_ context.Context, address string) error {
	ensurer.calls++
	ensurer.addresses = append(ensurer.addresses, address)
	return nil
}

/*
TestService_Fund checks the explicit funding request reaches the coordinator
with the reader's wallet, and that wallet-less profiles are rejected.
*/
func TestService_Fund(t *testing.T) {
	t.Run("funds_the_attached_wallet", func(t *testing.T) {
		ensurer := &stubEnsurer{}
		service := ledger.NewService(
			&stubClient{},
			&stubUsers{user: &auth.User{ID: "user-1", WalletAddress: "0xabc"}},
			nil,
			ensurer,
		)

		require.NoError(t, service.Fund(context.Background(), "user-1"))
		assert.Equal(t, 1, ensurer.calls)
		assert.Equal(t, []string{"0xabc"}, ensurer.addresses)
	})

	t.Run("rejects_without_wallet", func(t *testing.T) {
		ensurer := &stubEnsurer{}
		service := ledger.NewService(
			&stubClient{},
			&stubUsers{user: &auth.User{ID: "user-1"}},
			nil,
			ensurer,
		)

		err := service.Fund(context.Background(), "user-1")
		require.Error(t, err)
		assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
		assert.Zero(t, ensurer.calls)
	})
}

/*
TestService_Identity checks the per-address lookup returns the ledger
identity, and nil for an address that was never registered.
*/
func TestService_Identity(t *testing.T) {
	service := ledger.NewService(
		&stubClient{identities: map[string]*ledger.User{
			"0xabc": {Username: "amina", Points: 42},
		}},
		&stubUsers{},
		nil,
		&stubEnsurer{},
	)

	user, err := service.Identity(context.Background(), "0xabc")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "amina", user.Username)

	user, err = service.Identity(context.Background(), "0xdef")
	require.NoError(t, err)
	assert.Nil(t, user, "an unregistered address is a nil identity, not an error")
}
