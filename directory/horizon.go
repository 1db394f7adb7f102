// Copyright 2025 Thresho Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultRequestTimeout = 15 * time.Second

// HorizonClient reads signer sets and thresholds from a Horizon-compatible
// ledger API via its accounts endpoint
type HorizonClient struct {
	baseUrl    string
	httpClient *http.Client
	logger     *slog.Logger
}

type HorizonClientConfig struct {
	BaseUrl    string
	HttpClient *http.Client
	Logger     *slog.Logger
}

// horizonAccount is the subset of the Horizon account resource we consume
type horizonAccount struct {
	Id      string `json:"id"`
	Signers []struct {
		Key    string `json:"key"`
		Weight uint32 `json:"weight"`
	} `json:"signers"`
	Thresholds struct {
		Low    uint32 `json:"low_threshold"`
		Medium uint32 `json:"med_threshold"`
		High   uint32 `json:"high_threshold"`
	} `json:"thresholds"`
}

func NewHorizonClient(cfg HorizonClientConfig) *HorizonClient {
	c := &HorizonClient{
		baseUrl:    cfg.BaseUrl,
		httpClient: cfg.HttpClient,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if c.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

func (c *HorizonClient) GetSigners(
	ctx context.Context,
	accountId string,
) ([]Signer, error) {
	acct, err := c.loadAccount(ctx, accountId)
	if err != nil {
		return nil, err
	}
	ret := make([]Signer, 0, len(acct.Signers))
	for _, s := range acct.Signers {
		ret = append(ret, Signer{
			Identity: s.Key,
			Weight:   s.Weight,
		})
	}
	return ret, nil
}

func (c *HorizonClient) GetThresholds(
	ctx context.Context,
	accountId string,
) (ThresholdSet, error) {
	acct, err := c.loadAccount(ctx, accountId)
	if err != nil {
		return ThresholdSet{}, err
	}
	return ThresholdSet{
		Low:    acct.Thresholds.Low,
		Medium: acct.Thresholds.Medium,
		High:   acct.Thresholds.High,
	}, nil
}

func (c *HorizonClient) loadAccount(
	ctx context.Context,
	accountId string,
) (*horizonAccount, error) {
	reqUrl := fmt.Sprintf(
		"%s/accounts/%s",
		c.baseUrl,
		url.PathEscape(accountId),
	)
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		reqUrl,
		nil,
	)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrAccountNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &UnavailableError{
			Err: fmt.Errorf(
				"unexpected status %d from directory",
				resp.StatusCode,
			),
		}
	}
	var acct horizonAccount
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		return nil, &UnavailableError{
			Err: fmt.Errorf("malformed account response: %w", err),
		}
	}
	c.logger.Debug(
		"loaded account from directory",
		"component", "directory",
		"account", accountId,
		"signers", len(acct.Signers),
	)
	return &acct, nil
}
