// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// HTTP client for the custodial funding service.

package funding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iqralabs/iqra/internal/platform/apperr"
)

const funderTimeout = 15 * time.Second

// HTTPFunder implements [Funder] against the custodial funding service.
type HTTPFunder struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPFunder constructs a funder for the given service URL.
func NewHTTPFunder(baseURL string) *HTTPFunder {
	return &HTTPFunder{
		httpClient: &http.Client{Timeout: funderTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// funderResponse is the funding service's reply envelope. The service
// answers 200 for handled requests and reports refusals through the success
// flag, so the body must be inspected even on a 2xx status.
type funderResponse struct {
	Success         bool            `json:"success"`
	TransactionHash string          `json:"transactionHash"`
	Amount          json.RawMessage `json:"amount"`
	AlreadyFunded   bool            `json:"alreadyFunded"`
	Error           string          `json:"error"`
}

// Fund requests a gas grant for the address.
//
// Every failure maps to [apperr.FundingUnavailable]: from the reader's point
// of view the distinction between a funder outage and a drained custodial
// wallet does not matter, only that funding cannot proceed right now.
func (funder *HTTPFunder) Fund(ctx context.Context, address string) (string, error) {
	payload, err := json.Marshal(map[string]string{"walletAddress": address})
	if err != nil {
		return "", apperr.FundingUnavailable(err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, funder.baseURL+"/fund", bytes.NewReader(payload))
	if err != nil {
		return "", apperr.FundingUnavailable(err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := funder.httpClient.Do(request)
	if err != nil {
		return "", apperr.FundingUnavailable(err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return "", apperr.FundingUnavailable(
			fmt.Errorf("funder responded %d: %s", response.StatusCode, string(raw)))
	}

	var result funderResponse
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return "", apperr.FundingUnavailable(
			fmt.Errorf("funder response unreadable: %w", err))
	}

	if !result.Success {
		message := result.Error
		if message == "" {
			message = "funder declined without a reason"
		}
		return "", apperr.FundingUnavailable(fmt.Errorf("funder refused: %s", message))
	}

	return result.TransactionHash, nil
}
