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
	"errors"
	"fmt"
)

// ErrAccountNotFound is returned when the requested account does not exist
// in the ledger
var ErrAccountNotFound = errors.New("account not found")

// UnavailableError wraps a transient failure reaching the directory backend.
// Callers must treat it as retryable and must not mutate proposal state in
// response to it
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("account directory unavailable: %s", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Signer is a single identity authorized to approve transfers on an account,
// together with its approval weight
type Signer struct {
	Identity string
	Weight   uint32
}

// ThresholdSet holds the required cumulative approval weight for each of the
// three approval levels
type ThresholdSet struct {
	Low    uint32
	Medium uint32
	High   uint32
}

// Level selects which threshold from a ThresholdSet applies to a proposal
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ParseLevel normalizes a level string. An empty value defaults to medium,
// matching the behavior of the proposal creation surface
func ParseLevel(s string) (Level, error) {
	switch s {
	case "low":
		return LevelLow, nil
	case "medium", "med", "":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	default:
		return "", fmt.Errorf("unknown approval level: %q", s)
	}
}

// Valid returns true if the Level is a known approval level
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	default:
		return false
	}
}

// RequiredWeight returns the threshold weight for the given level
func (t ThresholdSet) RequiredWeight(level Level) uint32 {
	switch level {
	case LevelLow:
		return t.Low
	case LevelHigh:
		return t.High
	default:
		return t.Medium
	}
}

// AccountDirectory resolves an account identifier to its current signer set
// and quorum thresholds. Both are read fresh at proposal admission and at
// every approval event, since account configuration can change between
// events
type AccountDirectory interface {
	GetSigners(ctx context.Context, accountId string) ([]Signer, error)
	GetThresholds(ctx context.Context, accountId string) (ThresholdSet, error)
}
