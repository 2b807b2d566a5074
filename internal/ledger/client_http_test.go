// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package ledger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqralabs/iqra/internal/ledger"
	"github.com/iqralabs/iqra/internal/platform/apperr"
)

const testContract = "0xc0ffee254729296a45a3885639ac7e10f9d54979"

/*
TestGatewayClient_GetUser covers the registered, unregistered, and failing
gateway cases. Unregistered must yield (nil, nil).
*/
func TestGatewayClient_GetUser(t *testing.T) {
	t.Run("registered", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"address":"0xabc","username":"amina","points":42,"pages_read":30,"quizzes_passed":4}`))
		}))
		defer server.Close()

		client := ledger.NewGatewayClient(server.URL, testContract)
		user, err := client.GetUser(context.Background(), "0xabc")

		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "amina", user.Username)
		assert.Equal(t, int64(42), user.Points)
	})

	t.Run("unregistered_returns_nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"NOT_FOUND","message":"no such user"}`))
		}))
		defer server.Close()

		client := ledger.NewGatewayClient(server.URL, testContract)
		user, err := client.GetUser(context.Background(), "0xabc")

		require.NoError(t, err, "an unregistered address is a state, not an error")
		assert.Nil(t, user)
	})

	t.Run("gateway_down_is_transport_error", func(t *testing.T) {
		server := httptest.NewServer(nil)
		server.Close() // connection refused

		client := ledger.NewGatewayClient(server.URL, testContract)
		_, err := client.GetUser(context.Background(), "0xabc")

		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "TRANSPORT_ERROR", ae.Code)
	})
}

/*
TestGatewayClient_ErrorTaxonomy checks that gateway error codes map onto the
application error codes the reading flow branches on.
*/
func TestGatewayClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		expectedCode string
	}{
		{"already_registered", http.StatusConflict, `{"code":"ALREADY_REGISTERED","message":"0xabc"}`, "ALREADY_REGISTERED"},
		{"user_rejected", http.StatusBadRequest, `{"code":"USER_REJECTED","message":"signer declined"}`, "USER_REJECTED"},
		{"insufficient_gas", http.StatusPaymentRequired, `{"code":"INSUFFICIENT_GAS","message":"0"}`, "INSUFFICIENT_GAS"},
		{"unknown_failure", http.StatusInternalServerError, `{"code":"BOOM","message":"?"}`, "TRANSPORT_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := ledger.NewGatewayClient(server.URL, testContract)
			err := client.RegisterUser(context.Background(), ledger.Identity{Address: "0xabc", Username: "amina"})

			require.Error(t, err)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.expectedCode, ae.Code)
		})
	}
}

/*
TestGatewayClient_RecordPagesRead verifies the write path returns the
transaction hash from the gateway.
*/
func TestGatewayClient_RecordPagesRead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, testContract)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tx_hash":"0xfeed"}`))
	}))
	defer server.Close()

	client := ledger.NewGatewayClient(server.URL, testContract)
	txHash, err := client.RecordPagesRead(context.Background(), "0xabc", 3)

	require.NoError(t, err)
	assert.Equal(t, "0xfeed", txHash)
}

/*
TestGatewayClient_CheckBalance verifies wei balances larger than uint64 are
parsed and compared against thresholds correctly.
*/
func TestGatewayClient_CheckBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance":"123456789012345678901"}`))
	}))
	defer server.Close()

	client := ledger.NewGatewayClient(server.URL, testContract)
	balance, err := client.CheckBalance(context.Background(), "0xabc")

	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901", balance.Wei.String())
	assert.False(t, balance.Below(1), "a huge balance is never below a small threshold")
}
