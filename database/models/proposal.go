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

package models

import (
	"time"
)

// MigrateModels is the list of models to migrate on startup
var MigrateModels = []any{
	&ProposalOutcome{},
	&ProposalApproval{},
}

// ProposalOutcome is the durable audit record of a proposal that reached a
// terminal state. The live store is in-memory; this table is the audit trail
// that survives the process
type ProposalOutcome struct {
	ID            uint   `gorm:"primarykey"`
	ProposalId    string `gorm:"uniqueIndex;size:36"`
	Source        string `gorm:"index"`
	Destination   string
	Amount        string
	Asset         string
	Memo          string
	Category      string
	Level         string
	Status        string `gorm:"index"`
	ResultRef     string
	ResultDetail  string
	ApprovalCount int
	TotalWeight   uint64
	CreatedAt     time.Time
	CompletedAt   time.Time
}

func (p *ProposalOutcome) TableName() string {
	return "proposal_outcome"
}

// ProposalApproval is one signer's attestation as it counted toward the
// terminal outcome, with the weight banked at attestation time
type ProposalApproval struct {
	ID             uint   `gorm:"primarykey"`
	ProposalId     string `gorm:"index;size:36"`
	SignerIdentity string
	Weight         uint32
	RecordedAt     time.Time
}

func (p *ProposalApproval) TableName() string {
	return "proposal_approval"
}
