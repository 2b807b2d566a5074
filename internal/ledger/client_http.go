// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// HTTP JSON gateway implementation of the ledger [Client].

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iqralabs/iqra/internal/platform/apperr"
)

const gatewayTimeout = 10 * time.Second

// GatewayClient implements [Client] against the ledger HTTP gateway.
//
// The gateway fronts the reward contract; every route is scoped to the
// configured contract address.
type GatewayClient struct {
	httpClient      *http.Client
	baseURL         string
	contractAddress string
}

// NewGatewayClient constructs a gateway backed ledger client.
func NewGatewayClient(baseURL, contractAddress string) *GatewayClient {
	return &GatewayClient{
		httpClient:      &http.Client{Timeout: gatewayTimeout},
		baseURL:         strings.TrimRight(baseURL, "/"),
		contractAddress: contractAddress,
	}
}

// gatewayError is the gateway's JSON error envelope.
type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RegisterUser enrolls an identity on the ledger.
func (client *GatewayClient) RegisterUser(ctx context.Context, identity Identity) error {
	path := fmt.Sprintf("/contracts/%s/users", client.contractAddress)
	return client.post(ctx, "register_user", path, identity, nil)
}

// RecordPagesRead credits page reads and returns the transaction hash.
func (client *GatewayClient) RecordPagesRead(ctx context.Context, address string, pages int) (string, error) {
	path := fmt.Sprintf("/contracts/%s/users/%s/pages", client.contractAddress, url.PathEscape(address))

	var response struct {
		TxHash string `json:"tx_hash"`
	}
	if err := client.post(ctx, "record_pages_read", path, map[string]int{"pages": pages}, &response); err != nil {
		return "", err
	}

	return response.TxHash, nil
}

// RecordQuizPassed credits a passed quiz and returns the transaction hash.
func (client *GatewayClient) RecordQuizPassed(ctx context.Context, address string) (string, error) {
	path := fmt.Sprintf("/contracts/%s/users/%s/quizzes", client.contractAddress, url.PathEscape(address))

	var response struct {
		TxHash string `json:"tx_hash"`
	}
	if err := client.post(ctx, "record_quiz_passed", path, nil, &response); err != nil {
		return "", err
	}

	return response.TxHash, nil
}

// GetUser returns the on-chain profile, or nil for an unregistered address.
func (client *GatewayClient) GetUser(ctx context.Context, address string) (*User, error) {
	path := fmt.Sprintf("/contracts/%s/users/%s", client.contractAddress, url.PathEscape(address))

	user := &User{}
	err := client.get(ctx, "get_user", path, user)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.HTTPStatus == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

// IsUserRegistered reports whether the address holds a ledger profile.
func (client *GatewayClient) IsUserRegistered(ctx context.Context, address string) (bool, error) {
	user, err := client.GetUser(ctx, address)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// GetLeaderboard returns the top reward earners, highest first.
func (client *GatewayClient) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	path := fmt.Sprintf("/contracts/%s/leaderboard?limit=%d", client.contractAddress, limit)

	var entries []LeaderboardEntry
	if err := client.get(ctx, "get_leaderboard", path, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// CheckBalance returns the native-token balance of an address.
func (client *GatewayClient) CheckBalance(ctx context.Context, address string) (Balance, error) {
	path := "/balances/" + url.PathEscape(address)

	var response struct {
		// Wei balances exceed uint64; the gateway sends a decimal string.
		Balance string `json:"balance"`
	}
	if err := client.get(ctx, "check_balance", path, &response); err != nil {
		return Balance{}, err
	}

	wei, ok := new(big.Int).SetString(response.Balance, 10)
	if !ok {
		return Balance{}, apperr.TransportError("check_balance",
			fmt.Errorf("gateway returned non-numeric balance %q", response.Balance))
	}

	return Balance{Address: address, Wei: wei}, nil
}

// # Transport Plumbing

// get issues a GET request and decodes the JSON response into target.
func (client *GatewayClient) get(ctx context.Context, operation, path string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+path, nil)
	if err != nil {
		return apperr.TransportError(operation, err)
	}

	return client.do(operation, request, target)
}

// post issues a POST request with an optional JSON body and decodes the
// JSON response into target when target is non-nil.
func (client *GatewayClient) post(ctx context.Context, operation, path string, body, target any) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperr.TransportError(operation, err)
		}
		payload = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+path, payload)
	if err != nil {
		return apperr.TransportError(operation, err)
	}
	request.Header.Set("Content-Type", "application/json")

	return client.do(operation, request, target)
}

// do executes the request and maps non-2xx responses onto the application
// error taxonomy.
func (client *GatewayClient) do(operation string, request *http.Request, target any) error {
	response, err := client.httpClient.Do(request)
	if err != nil {
		return apperr.TransportError(operation, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if target == nil {
			return nil
		}
		if err := json.NewDecoder(response.Body).Decode(target); err != nil {
			return apperr.TransportError(operation, err)
		}
		return nil
	}

	return client.mapFailure(operation, response)
}

// mapFailure turns a gateway error response into a typed [apperr.AppError].
func (client *GatewayClient) mapFailure(operation string, response *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(response.Body, 4096))

	var envelope gatewayError
	_ = json.Unmarshal(raw, &envelope)

	switch envelope.Code {
	case "ALREADY_REGISTERED":
		return apperr.AlreadyRegistered(envelope.Message)
	case "USER_REJECTED":
		return apperr.UserRejected()
	case "INSUFFICIENT_GAS":
		return apperr.InsufficientGas(envelope.Message)
	}

	if response.StatusCode == http.StatusNotFound {
		return apperr.NotFound("Ledger record")
	}

	return apperr.TransportError(operation,
		fmt.Errorf("gateway responded %s: %s", strconv.Itoa(response.StatusCode), string(raw)))
}
