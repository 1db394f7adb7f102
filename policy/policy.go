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

// Package policy implements the pluggable admission policy evaluated before
// a transfer proposal is admitted. Evaluation is pure and deterministic so
// that admission decisions are reproducible and auditable: no I/O, no
// randomness, and the evaluation timestamp is an explicit input.
package policy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds the recognized policy options. A nil field means no
// restriction of that kind
type Config struct {
	// MaxPerTransfer caps the amount of a single transfer
	MaxPerTransfer *decimal.Decimal
	// TimeLockUntil denies all transfers proposed before this instant
	TimeLockUntil *time.Time
	// AllowedCategories whitelists proposal categories. Only consulted when
	// the proposal carries a category
	AllowedCategories map[string]struct{}
}

// Attributes are the proposal attributes the policy inspects
type Attributes struct {
	Amount    string
	Asset     string
	Category  string
	Timestamp time.Time
}

// Decision is the result of a policy evaluation
type Decision struct {
	Admit  bool
	Reason string
}

func admit() Decision {
	return Decision{Admit: true}
}

func deny(format string, args ...any) Decision {
	return Decision{
		Admit:  false,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Evaluate applies the configured policy to the given transfer attributes.
// A malformed or non-positive amount is a deny, not an error
func Evaluate(attrs Attributes, cfg Config) Decision {
	amount, err := decimal.NewFromString(attrs.Amount)
	if err != nil {
		return deny("malformed amount: %q", attrs.Amount)
	}
	if !amount.IsPositive() {
		return deny("amount must be positive: %s", amount)
	}
	if cfg.MaxPerTransfer != nil && amount.GreaterThan(*cfg.MaxPerTransfer) {
		return deny(
			"amount %s exceeds per-transfer cap %s",
			amount,
			cfg.MaxPerTransfer,
		)
	}
	if cfg.TimeLockUntil != nil && attrs.Timestamp.Before(*cfg.TimeLockUntil) {
		return deny(
			"transfers are time-locked until %s",
			cfg.TimeLockUntil.Format(time.RFC3339),
		)
	}
	if attrs.Category != "" && cfg.AllowedCategories != nil {
		if _, ok := cfg.AllowedCategories[attrs.Category]; !ok {
			return deny("category %q is not whitelisted", attrs.Category)
		}
	}
	return admit()
}
