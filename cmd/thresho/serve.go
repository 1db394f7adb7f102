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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	thresho "github.com/jacksonjkk/Thresho"
	"github.com/jacksonjkk/Thresho/internal/config"
)

func serveRun(_ *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun()

	policyCfg, err := cfg.BuildPolicy()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	shutdownTimeout, err := cfg.ParseShutdownTimeout()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	cacheTtl, err := cfg.ParseDirectoryCacheTtl()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	coordinator, err := thresho.New(
		thresho.NewConfig(
			thresho.WithLogger(logger),
			thresho.WithPrometheusRegistry(prometheus.NewRegistry()),
			thresho.WithHorizonUrl(cfg.HorizonUrl),
			thresho.WithApiListenAddress(cfg.ApiListenAddress),
			thresho.WithDataDir(cfg.DatabasePath),
			thresho.WithPolicy(policyCfg),
			thresho.WithDirectoryCacheTtl(cacheTtl),
			thresho.WithTracing(cfg.Tracing),
			thresho.WithTracingStdout(cfg.TracingStdout),
			thresho.WithShutdownTimeout(shutdownTimeout),
		),
	)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	// Shut down cleanly on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info(
			"received signal, shutting down",
			"component", programName,
			"signal", sig.String(),
		)
		if err := coordinator.Stop(); err != nil {
			logger.Error(
				"shutdown error",
				"component", programName,
				"error", err,
			)
		}
	}()

	// Run coordinator
	if err := coordinator.Run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the approval coordinator",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			serveRun(cmd, args, cfg)
		},
	}
	return cmd
}
