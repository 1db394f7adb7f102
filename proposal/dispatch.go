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

package proposal

import (
	"context"
	"time"

	"github.com/jacksonjkk/Thresho/event"
)

// dispatch hands a quorum-satisfying proposal to the settlement service
// exactly once and transitions it to a terminal state. The caller must hold
// the entry mutex: the Pending status check and the terminal transition
// around the submission are what make execution at-most-once under
// concurrent approvals. The lock covers only this proposal, so submissions
// for unrelated proposals are not serialized against each other.
//
// The submitted artifact is the most recently recorded one
// (last-approval-wins). Signers are expected to attest to the same transfer
// template, and the settlement service rejects an artifact whose attached
// attestations are individually insufficient; merging attestations from
// several partially-signed artifacts into one envelope would be more robust,
// but a quorum met across different partial artifacts fails settlement here
// and surfaces as a Failed outcome.
//
// Any settlement failure is terminal. There is no automatic retry; if the
// intent is still desired the caller creates a new proposal
func (s *Store) dispatch(ctx context.Context, entry *storeEntry) {
	p := entry.p
	if p.Status != StatusPending {
		return
	}
	result, err := s.settlement.Submit(ctx, entry.latestArtifact)
	if err != nil {
		p.Status = StatusFailed
		p.Result = &Result{
			Detail:      err.Error(),
			CompletedAt: time.Now(),
		}
		s.metrics.proposalsPending.Dec()
		s.metrics.settlements.WithLabelValues("failed").Inc()
		s.logger.Warn(
			"settlement failed",
			"component", "proposal",
			"proposal_id", p.Id,
			"error", err,
		)
		s.eventBus.Publish(
			FailedEventType,
			event.NewEvent(
				FailedEventType,
				FailedEvent{Proposal: p.snapshot()},
			),
		)
		return
	}
	p.Status = StatusSubmitted
	p.Result = &Result{
		Ref:         result.Ref,
		Detail:      result.Detail,
		CompletedAt: time.Now(),
	}
	s.metrics.proposalsPending.Dec()
	s.metrics.settlements.WithLabelValues("submitted").Inc()
	s.logger.Info(
		"submitted proposal for settlement",
		"component", "proposal",
		"proposal_id", p.Id,
		"ref", result.Ref,
	)
	s.eventBus.Publish(
		SubmittedEventType,
		event.NewEvent(
			SubmittedEventType,
			SubmittedEvent{Proposal: p.snapshot()},
		),
	)
}
