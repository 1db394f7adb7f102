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

package quorum

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jacksonjkk/Thresho/directory"
)

func TestEvaluate(t *testing.T) {
	thresholds := directory.ThresholdSet{Low: 1, Medium: 2, High: 3}
	testDefs := []struct {
		name       string
		weights    map[string]uint32
		level      directory.Level
		thresholds *directory.ThresholdSet
		expected   Result
	}{
		{
			name:    "empty weights not met",
			weights: map[string]uint32{},
			level:   directory.LevelMedium,
			expected: Result{
				Met:            false,
				TotalWeight:    0,
				RequiredWeight: 2,
			},
		},
		{
			name:    "below threshold",
			weights: map[string]uint32{"A": 1},
			level:   directory.LevelMedium,
			expected: Result{
				Met:            false,
				TotalWeight:    1,
				RequiredWeight: 2,
			},
		},
		{
			name:    "exactly at threshold",
			weights: map[string]uint32{"A": 1, "B": 1},
			level:   directory.LevelMedium,
			expected: Result{
				Met:            true,
				TotalWeight:    2,
				RequiredWeight: 2,
			},
		},
		{
			name:    "above threshold",
			weights: map[string]uint32{"A": 5},
			level:   directory.LevelMedium,
			expected: Result{
				Met:            true,
				TotalWeight:    5,
				RequiredWeight: 2,
			},
		},
		{
			name:    "low level",
			weights: map[string]uint32{"A": 1},
			level:   directory.LevelLow,
			expected: Result{
				Met:            true,
				TotalWeight:    1,
				RequiredWeight: 1,
			},
		},
		{
			name:    "high level not met",
			weights: map[string]uint32{"A": 1, "B": 1},
			level:   directory.LevelHigh,
			expected: Result{
				Met:            false,
				TotalWeight:    2,
				RequiredWeight: 3,
			},
		},
		{
			name:       "zero threshold trivially met",
			weights:    map[string]uint32{},
			level:      directory.LevelLow,
			thresholds: &directory.ThresholdSet{},
			expected: Result{
				Met:            true,
				TotalWeight:    0,
				RequiredWeight: 0,
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			th := thresholds
			if testDef.thresholds != nil {
				th = *testDef.thresholds
			}
			result := Evaluate(testDef.weights, testDef.level, th)
			assert.Equal(t, testDef.expected, result)
		})
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	weights := map[string]uint32{"A": 1, "B": 2}
	thresholds := directory.ThresholdSet{Low: 1, Medium: 3, High: 5}
	first := Evaluate(weights, directory.LevelMedium, thresholds)
	for range 10 {
		assert.Equal(
			t,
			first,
			Evaluate(weights, directory.LevelMedium, thresholds),
		)
	}
}

func TestEvaluateLargeWeights(t *testing.T) {
	// Summing near-max uint32 weights must not overflow
	weights := map[string]uint32{
		"A": 0xFFFFFFFF,
		"B": 0xFFFFFFFF,
	}
	result := Evaluate(
		weights,
		directory.LevelHigh,
		directory.ThresholdSet{High: 0xFFFFFFFF},
	)
	assert.True(t, result.Met)
	assert.Equal(t, uint64(0x1FFFFFFFE), result.TotalWeight)
}
