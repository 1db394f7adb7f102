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

package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jacksonjkk/Thresho/policy"
)

type ctxKey string

const configContextKey ctxKey = "thresho.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const DefaultShutdownTimeout = "30s"

type Config struct {
	HorizonUrl        string       `yaml:"horizonUrl"        split_words:"true"`
	ApiListenAddress  string       `yaml:"apiListenAddress"  split_words:"true"`
	DatabasePath      string       `yaml:"databasePath"      split_words:"true"`
	DirectoryCacheTtl string       `yaml:"directoryCacheTtl" split_words:"true"`
	ShutdownTimeout   string       `yaml:"shutdownTimeout"   split_words:"true"`
	Tracing           bool         `yaml:"tracing"`
	TracingStdout     bool         `yaml:"tracingStdout"     split_words:"true"`
	Policy            PolicyConfig `yaml:"policy"`
}

// PolicyConfig is the on-disk form of the admission policy. An absent field
// means no restriction of that kind
type PolicyConfig struct {
	MaxPerTransfer    string   `yaml:"maxPerTransfer"    envconfig:"THRESHO_POLICY_MAX_PER_TRANSFER"`
	TimeLockUntil     string   `yaml:"timeLockUntil"     envconfig:"THRESHO_POLICY_TIME_LOCK_UNTIL"`
	AllowedCategories []string `yaml:"allowedCategories" envconfig:"THRESHO_POLICY_ALLOWED_CATEGORIES"`
}

// Load reads the optional YAML config file and then applies environment
// variable overrides
func Load(configFile string) (*Config, error) {
	cfg := &Config{
		ApiListenAddress: ":4000",
		HorizonUrl:       "https://horizon-testnet.stellar.org",
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("thresho", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return cfg, nil
}

// ParseShutdownTimeout returns the configured shutdown timeout as a duration
func (c *Config) ParseShutdownTimeout() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return ret, nil
}

// ParseDirectoryCacheTtl returns the configured directory cache TTL. Empty
// means zero: read fresh on every event
func (c *Config) ParseDirectoryCacheTtl() (time.Duration, error) {
	if c.DirectoryCacheTtl == "" {
		return 0, nil
	}
	ret, err := time.ParseDuration(c.DirectoryCacheTtl)
	if err != nil {
		return 0, fmt.Errorf("invalid directory cache TTL: %w", err)
	}
	return ret, nil
}

// BuildPolicy converts the on-disk policy form into the evaluator's config
func (c *Config) BuildPolicy() (policy.Config, error) {
	ret := policy.Config{}
	if c.Policy.MaxPerTransfer != "" {
		maxAmount, err := decimal.NewFromString(c.Policy.MaxPerTransfer)
		if err != nil {
			return ret, fmt.Errorf("invalid maxPerTransfer: %w", err)
		}
		ret.MaxPerTransfer = &maxAmount
	}
	if c.Policy.TimeLockUntil != "" {
		lockUntil, err := time.Parse(time.RFC3339, c.Policy.TimeLockUntil)
		if err != nil {
			return ret, fmt.Errorf("invalid timeLockUntil: %w", err)
		}
		ret.TimeLockUntil = &lockUntil
	}
	if len(c.Policy.AllowedCategories) > 0 {
		ret.AllowedCategories = make(map[string]struct{})
		for _, category := range c.Policy.AllowedCategories {
			ret.AllowedCategories[category] = struct{}{}
		}
	}
	return ret, nil
}
