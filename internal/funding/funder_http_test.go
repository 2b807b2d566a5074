// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package funding_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqralabs/iqra/internal/funding"
	"github.com/iqralabs/iqra/internal/platform/apperr"
)

/*
TestHTTPFunder_Fund covers the funding service wire contract: the request
carries walletAddress, the reply envelope is parsed, and a 200 that reports
success:false is a refusal, not a grant.
*/
func TestHTTPFunder_Fund(t *testing.T) {
	t.Run("grant_returns_transaction_hash", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "/fund", request.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
			assert.Equal(t, "0xabc", body["walletAddress"])

			_ = json.NewEncoder(writer).Encode(map[string]any{
				"success":         true,
				"transactionHash": "0xfund-1",
				"amount":          0.005,
			})
		}))
		defer server.Close()

		txHash, err := funding.NewHTTPFunder(server.URL).Fund(context.Background(), "0xabc")
		require.NoError(t, err)
		assert.Equal(t, "0xfund-1", txHash)
	})

	t.Run("already_funded_is_not_an_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(writer).Encode(map[string]any{
				"success":       true,
				"alreadyFunded": true,
			})
		}))
		defer server.Close()

		txHash, err := funding.NewHTTPFunder(server.URL).Fund(context.Background(), "0xabc")
		require.NoError(t, err)
		assert.Empty(t, txHash)
	})

	t.Run("refusal_with_200_fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(writer).Encode(map[string]any{
				"success": false,
				"error":   "custodial wallet drained",
			})
		}))
		defer server.Close()

		_, err := funding.NewHTTPFunder(server.URL).Fund(context.Background(), "0xabc")
		require.Error(t, err)
		assert.Equal(t, "FUNDING_UNAVAILABLE", apperr.As(err).Code)
		assert.Contains(t, apperr.As(err).Cause.Error(), "custodial wallet drained")
	})

	t.Run("unreadable_body_fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			_, _ = writer.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := funding.NewHTTPFunder(server.URL).Fund(context.Background(), "0xabc")
		require.Error(t, err)
		assert.Equal(t, "FUNDING_UNAVAILABLE", apperr.As(err).Code)
	})

	t.Run("server_error_fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			http.Error(writer, "boom", http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := funding.NewHTTPFunder(server.URL).Fund(context.Background(), "0xabc")
		require.Error(t, err)
		assert.Equal(t, "FUNDING_UNAVAILABLE", apperr.As(err).Code)
	})
}
