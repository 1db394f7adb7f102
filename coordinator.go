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

package thresho

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jacksonjkk/Thresho/api"
	"github.com/jacksonjkk/Thresho/database"
	"github.com/jacksonjkk/Thresho/directory"
	"github.com/jacksonjkk/Thresho/event"
	"github.com/jacksonjkk/Thresho/proposal"
	"github.com/jacksonjkk/Thresho/settlement"
)

// Coordinator wires the approval orchestration engine together: account
// directory, admission policy, proposal store, settlement client, audit
// store, and the REST API
type Coordinator struct {
	config        Config
	eventBus      *event.EventBus
	store         *proposal.Store
	db            *database.Database
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Coordinator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	c := &Coordinator{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry),
		done:     make(chan struct{}),
	}
	return c, nil
}

func (c *Coordinator) Run() error {
	// Configure tracing
	if c.config.tracing {
		if err := c.setupTracing(); err != nil {
			return err
		}
	}
	// Open audit database
	db, err := database.New(c.config.dataDir, c.config.logger)
	if err != nil {
		return fmt.Errorf("failed to open audit database: %w", err)
	}
	c.db = db
	// Resolve account directory
	accountDirectory := c.config.directory
	if accountDirectory == nil {
		accountDirectory = directory.NewHorizonClient(
			directory.HorizonClientConfig{
				BaseUrl: c.config.horizonUrl,
				Logger:  c.config.logger,
			},
		)
	}
	if c.config.directoryCacheTtl > 0 {
		accountDirectory = directory.NewCachingDirectory(
			accountDirectory,
			c.config.directoryCacheTtl,
		)
	}
	// Resolve settlement service
	settlementService := c.config.settlement
	if settlementService == nil {
		settlementService = settlement.NewHorizonClient(
			settlement.HorizonClientConfig{
				BaseUrl: c.config.horizonUrl,
				Logger:  c.config.logger,
			},
		)
	}
	// Initialize proposal store
	c.store = proposal.NewStore(proposal.StoreConfig{
		Logger:       c.config.logger,
		EventBus:     c.eventBus,
		PromRegistry: c.config.promRegistry,
		Directory:    accountDirectory,
		Settlement:   settlementService,
		Policy:       c.config.policy,
	})
	// Record terminal outcomes into the audit store
	for _, eventType := range []event.EventType{
		proposal.SubmittedEventType,
		proposal.FailedEventType,
		proposal.RejectedEventType,
	} {
		c.eventBus.SubscribeFunc(eventType, c.handleTerminalEvent)
	}
	// Start API server
	apiCfg := api.ApiConfig{
		ListenAddress: c.config.apiListenAddress,
		Logger:        c.config.logger,
	}
	if c.config.promRegistry != nil {
		apiCfg.PromGatherer = c.config.promRegistry
	}
	c.api = api.New(apiCfg, c.store)
	if err := c.api.Start(context.Background()); err != nil {
		return err
	}

	// Wait for shutdown signal
	<-c.done
	return nil
}

// Store returns the proposal store. It is only valid after Run has started
func (c *Coordinator) Store() *proposal.Store {
	return c.store
}

func (c *Coordinator) handleTerminalEvent(evt event.Event) {
	var p proposal.Proposal
	switch data := evt.Data.(type) {
	case proposal.SubmittedEvent:
		p = data.Proposal
	case proposal.FailedEvent:
		p = data.Proposal
	case proposal.RejectedEvent:
		p = data.Proposal
	default:
		return
	}
	if err := c.db.RecordOutcome(p); err != nil {
		c.config.logger.Error(
			"failed to record proposal outcome",
			"component", "coordinator",
			"proposal_id", p.Id,
			"error", err,
		)
	}
}

func (c *Coordinator) Stop() error {
	var err error
	c.shutdownOnce.Do(func() {
		err = c.shutdown()
	})
	return err
}

func (c *Coordinator) shutdown() error {
	shutdownTimeout := 30 * time.Second
	if c.config.shutdownTimeout > 0 {
		shutdownTimeout = c.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	c.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	if c.api != nil {
		if stopErr := c.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Stop event delivery
	if c.eventBus != nil {
		c.eventBus.Stop()
	}

	// Phase 3: Flush and close the audit store
	if c.db != nil {
		if closeErr := c.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("audit database close: %w", closeErr),
			)
		}
	}

	// Phase 4: Cleanup resources
	for _, fn := range c.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	c.shutdownFuncs = nil

	c.config.logger.Debug("graceful shutdown complete")
	close(c.done)
	return err
}
