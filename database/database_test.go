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

package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonjkk/Thresho/database/models"
	"github.com/jacksonjkk/Thresho/proposal"
)

// The in-memory database is shared process-wide, so each test uses unique
// proposal ids rather than assuming an empty store
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New("", nil)
	require.NoError(t, err)
	return db
}

func terminalProposal(status proposal.Status) proposal.Proposal {
	now := time.Now()
	p := proposal.Proposal{
		Id:          uuid.NewString(),
		Source:      "GSOURCE",
		Destination: "GDEST",
		Amount:      "250",
		Asset:       "XLM",
		Level:       "medium",
		Status:      status,
		CreatedAt:   now.Add(-time.Minute),
		Approvals: map[string]proposal.Approval{
			"A": {
				SignerIdentity: "A",
				Weight:         1,
				RecordedAt:     now.Add(-30 * time.Second),
			},
			"B": {
				SignerIdentity: "B",
				Weight:         2,
				RecordedAt:     now,
			},
		},
	}
	if status == proposal.StatusSubmitted {
		p.Result = &proposal.Result{
			Ref:         "settle-ref",
			Detail:      "included in ledger 42",
			CompletedAt: now,
		}
	}
	return p
}

func TestRecordAndGetOutcome(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()
	p := terminalProposal(proposal.StatusSubmitted)
	require.NoError(t, db.RecordOutcome(p))

	outcome, err := db.GetOutcome(p.Id)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, p.Id, outcome.ProposalId)
	assert.Equal(t, "submitted", outcome.Status)
	assert.Equal(t, "settle-ref", outcome.ResultRef)
	assert.Equal(t, 2, outcome.ApprovalCount)
	assert.Equal(t, uint64(3), outcome.TotalWeight)
}

func TestRecordOutcomeIdempotent(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()
	p := terminalProposal(proposal.StatusFailed)
	require.NoError(t, db.RecordOutcome(p))
	require.NoError(t, db.RecordOutcome(p))

	var count int64
	result := db.DB().Model(&models.ProposalOutcome{}).
		Where("proposal_id = ?", p.Id).
		Count(&count)
	require.NoError(t, result.Error)
	assert.Equal(t, int64(1), count)

	// Approval rows are not duplicated either
	var approvalCount int64
	result = db.DB().Model(&models.ProposalApproval{}).
		Where("proposal_id = ?", p.Id).
		Count(&approvalCount)
	require.NoError(t, result.Error)
	assert.Equal(t, int64(2), approvalCount)
}

func TestGetOutcomeMissing(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()
	outcome, err := db.GetOutcome(uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestListOutcomes(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()
	p1 := terminalProposal(proposal.StatusRejected)
	p2 := terminalProposal(proposal.StatusSubmitted)
	require.NoError(t, db.RecordOutcome(p1))
	require.NoError(t, db.RecordOutcome(p2))

	outcomes, err := db.ListOutcomes(100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(outcomes), 2)
	// Most recent first
	assert.Equal(t, p2.Id, outcomes[0].ProposalId)
	assert.Equal(t, p1.Id, outcomes[1].ProposalId)
}
