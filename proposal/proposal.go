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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jacksonjkk/Thresho/directory"
)

// Status is the lifecycle state of a proposal. Transitions are monotone:
// Pending may move to any terminal state, and no transition leaves a
// terminal state
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
	StatusRejected  Status = "rejected"
)

// Terminal returns true if no further mutation of the proposal is possible
func (s Status) Terminal() bool {
	switch s {
	case StatusSubmitted, StatusFailed, StatusRejected:
		return true
	default:
		return false
	}
}

// Approval is a single signer's attestation to a proposal's transfer
// template. Weight is captured from the directory at attestation time and is
// never re-read, so a later signer-set change does not retroactively alter
// already-banked weight
type Approval struct {
	SignerIdentity string
	Weight         uint32
	Artifact       []byte
	RecordedAt     time.Time
}

// Result records the terminal settlement outcome of a proposal
type Result struct {
	Ref         string
	Detail      string
	CompletedAt time.Time
}

// Proposal is a single transfer request awaiting sufficient approval weight.
// All transfer attributes are immutable once created; only the approvals map
// and status change, and only while the proposal is pending
type Proposal struct {
	Id          string
	Source      string
	Destination string
	Amount      string
	Asset       string
	Memo        string
	Category    string
	Level       directory.Level
	// Template is the canonical serialized representation of the intended
	// operation. Every approval attests to exactly these bytes
	Template  []byte
	Approvals map[string]Approval
	Status    Status
	Result    *Result
	CreatedAt time.Time
}

// ApprovalWeights returns the per-signer weight map used for quorum
// evaluation. Total weight is always recomputed from this map rather than
// kept as a running counter, so replacing an approval cannot cause drift
func (p *Proposal) ApprovalWeights() map[string]uint32 {
	ret := make(map[string]uint32, len(p.Approvals))
	for identity, approval := range p.Approvals {
		ret[identity] = approval.Weight
	}
	return ret
}

// snapshot returns a deep copy safe to hand to callers
func (p *Proposal) snapshot() Proposal {
	ret := *p
	ret.Template = make([]byte, len(p.Template))
	copy(ret.Template, p.Template)
	ret.Approvals = make(map[string]Approval, len(p.Approvals))
	for identity, approval := range p.Approvals {
		tmpArtifact := make([]byte, len(approval.Artifact))
		copy(tmpArtifact, approval.Artifact)
		approval.Artifact = tmpArtifact
		ret.Approvals[identity] = approval
	}
	if p.Result != nil {
		tmpResult := *p.Result
		ret.Result = &tmpResult
	}
	return ret
}

// transferTemplate is the canonical wire form of the intended operation.
// Field order is fixed, so marshaling is deterministic
type transferTemplate struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Asset       string `json:"asset"`
	Memo        string `json:"memo,omitempty"`
}

func buildTemplate(spec Spec) ([]byte, error) {
	return json.Marshal(transferTemplate{
		Source:      spec.Source,
		Destination: spec.Destination,
		Amount:      spec.Amount,
		Asset:       spec.Asset,
		Memo:        spec.Memo,
	})
}

// Spec describes a transfer to be proposed
type Spec struct {
	Source      string
	Destination string
	Amount      string
	Asset       string
	Memo        string
	Category    string
	Level       directory.Level
}

// ErrNotFound is returned when the requested proposal id is unknown
var ErrNotFound = errors.New("proposal not found")

// InvalidSpecError is returned when proposal creation fails validation. The
// proposal is never persisted
type InvalidSpecError struct {
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid proposal spec: %s", e.Reason)
}

// PolicyDeniedError is returned when the admission policy denies a proposed
// transfer. The proposal is never persisted
type PolicyDeniedError struct {
	Reason string
}

func (e *PolicyDeniedError) Error() string {
	return fmt.Sprintf("denied by policy: %s", e.Reason)
}

// InvalidStateError is returned when an operation requires a pending
// proposal but the proposal is already terminal
type InvalidStateError struct {
	Id     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf(
		"proposal %s is not pending (status: %s)",
		e.Id,
		e.Status,
	)
}

// UnknownSignerError is returned when an approval's signer identity is not
// part of the account's current signer set
type UnknownSignerError struct {
	Identity string
}

func (e *UnknownSignerError) Error() string {
	return fmt.Sprintf("signer %s not part of account", e.Identity)
}
