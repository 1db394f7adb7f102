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
	"github.com/jacksonjkk/Thresho/directory"
	"github.com/jacksonjkk/Thresho/event"
)

const (
	CreatedEventType   event.EventType = "proposal.created"
	ApprovalEventType  event.EventType = "proposal.approval"
	SubmittedEventType event.EventType = "proposal.submitted"
	FailedEventType    event.EventType = "proposal.failed"
	RejectedEventType  event.EventType = "proposal.rejected"
)

// CreatedEvent is emitted when a proposal is admitted and persisted
type CreatedEvent struct {
	Id     string
	Source string
	Level  directory.Level
}

// ApprovalEvent is emitted after each recorded approval, carrying the quorum
// evaluation performed within the same operation
type ApprovalEvent struct {
	Id             string
	SignerIdentity string
	TotalWeight    uint64
	RequiredWeight uint32
	Met            bool
}

// SubmittedEvent is emitted when the settlement service accepts a
// sufficiently-approved proposal. Proposal is a terminal-state snapshot
type SubmittedEvent struct {
	Proposal Proposal
}

// FailedEvent is emitted when the settlement service rejects a proposal or
// the submission fails. Proposal is a terminal-state snapshot
type FailedEvent struct {
	Proposal Proposal
}

// RejectedEvent is emitted when a pending proposal is explicitly rejected.
// Proposal is a terminal-state snapshot
type RejectedEvent struct {
	Proposal Proposal
}
