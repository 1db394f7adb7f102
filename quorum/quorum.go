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

// Package quorum decides whether accumulated approval weight satisfies the
// threshold required by a proposal's approval level. Evaluation is a pure
// function of the current approval weights and the current thresholds: it is
// re-run on every approval event and must yield identical results for
// identical inputs, since the at-most-once execution guarantee relies on the
// caller's status check rather than on this function firing once.
package quorum

import (
	"github.com/jacksonjkk/Thresho/directory"
)

// Result reports the outcome of a quorum evaluation
type Result struct {
	Met            bool
	TotalWeight    uint64
	RequiredWeight uint32
}

// Evaluate sums the given per-signer weights and compares against the
// threshold for the proposal's level. The weights map carries one entry per
// distinct signer; duplicates are impossible by construction (approvals
// replace, never accumulate)
func Evaluate(
	weights map[string]uint32,
	level directory.Level,
	thresholds directory.ThresholdSet,
) Result {
	var total uint64
	for _, w := range weights {
		total += uint64(w)
	}
	required := thresholds.RequiredWeight(level)
	return Result{
		Met:            total >= uint64(required),
		TotalWeight:    total,
		RequiredWeight: required,
	}
}
