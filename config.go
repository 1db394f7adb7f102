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
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacksonjkk/Thresho/directory"
	"github.com/jacksonjkk/Thresho/policy"
	"github.com/jacksonjkk/Thresho/settlement"
)

type Config struct {
	promRegistry      *prometheus.Registry
	logger            *slog.Logger
	directory         directory.AccountDirectory
	settlement        settlement.Service
	policy            policy.Config
	dataDir           string
	horizonUrl        string
	apiListenAddress  string
	directoryCacheTtl time.Duration
	tracing           bool
	tracingStdout     bool
	shutdownTimeout   time.Duration
}

func (c *Config) validate() error {
	if c.directory == nil && c.horizonUrl == "" {
		return errors.New(
			"no account directory configured: provide a Horizon URL or a directory implementation",
		)
	}
	if c.settlement == nil && c.horizonUrl == "" {
		return errors.New(
			"no settlement service configured: provide a Horizon URL or a settlement implementation",
		)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the coordinator config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new thresho config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:           slog.New(slog.NewJSONHandler(io.Discard, nil)),
		apiListenAddress: ":4000",
		shutdownTimeout:  30 * time.Second,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. The default is to discard log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies the metrics registry to use
func WithPrometheusRegistry(registry *prometheus.Registry) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithDataDir specifies the persistent data directory for the audit store.
// The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithHorizonUrl specifies the base URL of the Horizon-compatible ledger API
// used for both the account directory and the settlement service, unless
// either is overridden separately
func WithHorizonUrl(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.horizonUrl = url
	}
}

// WithAccountDirectory specifies the account directory implementation,
// overriding the Horizon-backed default
func WithAccountDirectory(d directory.AccountDirectory) ConfigOptionFunc {
	return func(c *Config) {
		c.directory = d
	}
}

// WithSettlementService specifies the settlement service implementation,
// overriding the Horizon-backed default
func WithSettlementService(s settlement.Service) ConfigOptionFunc {
	return func(c *Config) {
		c.settlement = s
	}
}

// WithPolicy specifies the admission policy configuration
func WithPolicy(p policy.Config) ConfigOptionFunc {
	return func(c *Config) {
		c.policy = p
	}
}

// WithApiListenAddress specifies the listen address for the REST API
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithDirectoryCacheTtl specifies how long account snapshots may be served
// from cache. The default of zero reads fresh from the directory on every
// approval event
func WithDirectoryCacheTtl(ttl time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.directoryCacheTtl = ttl
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
