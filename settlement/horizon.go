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

package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSubmitTimeout = 60 * time.Second

// HorizonClient submits signed transfer envelopes to a Horizon-compatible
// ledger API
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

func NewHorizonClient(cfg HorizonClientConfig) *HorizonClient {
	c := &HorizonClient{
		baseUrl:    cfg.BaseUrl,
		httpClient: cfg.HttpClient,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultSubmitTimeout}
	}
	if c.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

type horizonSubmitResponse struct {
	Hash   string `json:"hash"`
	Ledger int64  `json:"ledger"`
}

type horizonProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Extras struct {
		ResultCodes struct {
			Transaction string   `json:"transaction"`
			Operations  []string `json:"operations"`
		} `json:"result_codes"`
	} `json:"extras"`
}

func (c *HorizonClient) Submit(
	ctx context.Context,
	signedArtifact []byte,
) (Result, error) {
	form := url.Values{}
	form.Set("tx", string(signedArtifact))
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseUrl+"/transactions",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &SubmissionError{
			Code:   "network_error",
			Detail: err.Error(),
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var problem horizonProblem
		detail := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
			if problem.Detail != "" {
				detail = problem.Detail
			}
			if problem.Extras.ResultCodes.Transaction != "" {
				detail = fmt.Sprintf(
					"%s: %s",
					detail,
					problem.Extras.ResultCodes.Transaction,
				)
			}
		}
		c.logger.Debug(
			"settlement submission rejected",
			"component", "settlement",
			"status", resp.StatusCode,
			"detail", detail,
		)
		return Result{}, &SubmissionError{
			Code:   "tx_rejected",
			Detail: detail,
		}
	}
	var submitResp horizonSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return Result{}, &SubmissionError{
			Code:   "malformed_response",
			Detail: err.Error(),
		}
	}
	c.logger.Debug(
		"settlement submission accepted",
		"component", "settlement",
		"ref", submitResp.Hash,
	)
	return Result{
		Ref:    submitResp.Hash,
		Detail: fmt.Sprintf("included in ledger %d", submitResp.Ledger),
	}, nil
}
