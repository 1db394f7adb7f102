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

package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateEmptyConfig(t *testing.T) {
	// An empty config admits any well-formed transfer
	decision := Evaluate(
		Attributes{Amount: "100", Asset: "XLM", Timestamp: time.Now()},
		Config{},
	)
	assert.True(t, decision.Admit)
	assert.Empty(t, decision.Reason)
}

func TestEvaluateMalformedAmount(t *testing.T) {
	for _, amount := range []string{"", "banana", "1.2.3"} {
		decision := Evaluate(
			Attributes{Amount: amount, Asset: "XLM"},
			Config{},
		)
		assert.False(t, decision.Admit, "amount %q", amount)
	}
}

func TestEvaluateNonPositiveAmount(t *testing.T) {
	for _, amount := range []string{"0", "-1", "-0.0001"} {
		decision := Evaluate(
			Attributes{Amount: amount, Asset: "XLM"},
			Config{},
		)
		assert.False(t, decision.Admit, "amount %q", amount)
	}
}

func TestEvaluateMaxPerTransfer(t *testing.T) {
	maxAmount := decimal.NewFromInt(1000)
	cfg := Config{MaxPerTransfer: &maxAmount}
	decision := Evaluate(Attributes{Amount: "1000", Asset: "XLM"}, cfg)
	assert.True(t, decision.Admit, "at the cap is admitted")
	decision = Evaluate(Attributes{Amount: "1000.01", Asset: "XLM"}, cfg)
	assert.False(t, decision.Admit)
	assert.Contains(t, decision.Reason, "per-transfer cap")
}

func TestEvaluateTimeLock(t *testing.T) {
	unlockAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{TimeLockUntil: &unlockAt}
	decision := Evaluate(
		Attributes{
			Amount:    "10",
			Asset:     "XLM",
			Timestamp: unlockAt.Add(-time.Hour),
		},
		cfg,
	)
	assert.False(t, decision.Admit)
	assert.Contains(t, decision.Reason, "time-locked")
	decision = Evaluate(
		Attributes{
			Amount:    "10",
			Asset:     "XLM",
			Timestamp: unlockAt,
		},
		cfg,
	)
	assert.True(t, decision.Admit)
}

func TestEvaluateCategories(t *testing.T) {
	cfg := Config{
		AllowedCategories: map[string]struct{}{
			"payroll": {},
		},
	}
	decision := Evaluate(
		Attributes{Amount: "10", Asset: "XLM", Category: "payroll"},
		cfg,
	)
	assert.True(t, decision.Admit)
	decision = Evaluate(
		Attributes{Amount: "10", Asset: "XLM", Category: "vendor"},
		cfg,
	)
	assert.False(t, decision.Admit)
	assert.Contains(t, decision.Reason, "not whitelisted")
	// An uncategorized transfer is not subject to the whitelist
	decision = Evaluate(
		Attributes{Amount: "10", Asset: "XLM"},
		cfg,
	)
	assert.True(t, decision.Admit)
}

func TestEvaluateDeterministic(t *testing.T) {
	maxAmount := decimal.NewFromInt(500)
	cfg := Config{MaxPerTransfer: &maxAmount}
	attrs := Attributes{
		Amount:    "499.99",
		Asset:     "XLM",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	first := Evaluate(attrs, cfg)
	for range 5 {
		assert.Equal(t, first, Evaluate(attrs, cfg))
	}
}
