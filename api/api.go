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

// Package api is the REST surface of the approval coordinator, consumed by
// the surrounding application layer (wallet UI, signer sessions).
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jacksonjkk/Thresho/proposal"
)

// Api is the coordinator's HTTP API server
type Api struct {
	config     ApiConfig
	logger     *slog.Logger
	store      *proposal.Store
	httpServer *http.Server
	mu         sync.Mutex
}

type ApiConfig struct {
	ListenAddress string
	Logger        *slog.Logger
	// PromGatherer, when set, exposes prometheus metrics on /metrics
	PromGatherer prometheus.Gatherer
}

// New creates a new API server instance
func New(
	cfg ApiConfig,
	store *proposal.Store,
) *Api {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":4000"
	}
	return &Api{
		config: cfg,
		logger: logger,
		store:  store,
	}
}

// mux builds the route table
func (a *Api) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc(
		"POST /v1/proposals",
		a.handleCreateProposal,
	)
	mux.HandleFunc(
		"GET /v1/proposals",
		a.handleListPending,
	)
	mux.HandleFunc(
		"GET /v1/proposals/{id}",
		a.handleGetProposal,
	)
	mux.HandleFunc(
		"POST /v1/proposals/{id}/approve",
		a.handleApproveProposal,
	)
	mux.HandleFunc(
		"POST /v1/proposals/{id}/reject",
		a.handleRejectProposal,
	)
	if a.config.PromGatherer != nil {
		mux.Handle(
			"GET /metrics",
			promhttp.HandlerFor(
				a.config.PromGatherer,
				promhttp.HandlerOpts{},
			),
		)
	}
	return mux
}

// Start starts the HTTP server in a background goroutine
func (a *Api) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.mux(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	listener, err := net.Listen("tcp", a.config.ListenAddress)
	if err != nil {
		return err
	}
	a.logger.Info(
		"listening for API requests",
		"address", a.config.ListenAddress,
	)
	go func() {
		if err := server.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server failed",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *Api) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.httpServer == nil {
		return nil
	}
	err := a.httpServer.Shutdown(ctx)
	a.httpServer = nil
	return err
}
