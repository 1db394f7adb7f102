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
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jacksonjkk/Thresho/database/models"
	"github.com/jacksonjkk/Thresho/proposal"
)

// RecordOutcome persists the terminal state of a proposal together with the
// approvals that counted toward it. Idempotent on proposal id: recording the
// same terminal outcome twice is a no-op, since terminal proposals never
// change
func (d *Database) RecordOutcome(p proposal.Proposal) error {
	var existing int64
	result := d.db.Model(&models.ProposalOutcome{}).
		Where("proposal_id = ?", p.Id).
		Count(&existing)
	if result.Error != nil {
		return result.Error
	}
	if existing > 0 {
		return nil
	}
	var totalWeight uint64
	for _, approval := range p.Approvals {
		totalWeight += uint64(approval.Weight)
	}
	outcome := models.ProposalOutcome{
		ProposalId:    p.Id,
		Source:        p.Source,
		Destination:   p.Destination,
		Amount:        p.Amount,
		Asset:         p.Asset,
		Memo:          p.Memo,
		Category:      p.Category,
		Level:         string(p.Level),
		Status:        string(p.Status),
		ApprovalCount: len(p.Approvals),
		TotalWeight:   totalWeight,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   time.Now(),
	}
	if p.Result != nil {
		outcome.ResultRef = p.Result.Ref
		outcome.ResultDetail = p.Result.Detail
		outcome.CompletedAt = p.Result.CompletedAt
	}
	if result := d.db.Create(&outcome); result.Error != nil {
		return result.Error
	}
	for _, approval := range p.Approvals {
		tmpItem := models.ProposalApproval{
			ProposalId:     p.Id,
			SignerIdentity: approval.SignerIdentity,
			Weight:         approval.Weight,
			RecordedAt:     approval.RecordedAt,
		}
		if result := d.db.Create(&tmpItem); result.Error != nil {
			return result.Error
		}
	}
	d.logger.Debug(
		"recorded proposal outcome",
		"component", "database",
		"proposal_id", p.Id,
		"status", p.Status,
	)
	return nil
}

// GetOutcome returns the audit record for a proposal id, or nil if none
// has been recorded
func (d *Database) GetOutcome(
	proposalId string,
) (*models.ProposalOutcome, error) {
	ret := models.ProposalOutcome{}
	result := d.db.Where("proposal_id = ?", proposalId).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListOutcomes returns audit records, most recent first
func (d *Database) ListOutcomes(limit int) ([]models.ProposalOutcome, error) {
	ret := []models.ProposalOutcome{}
	result := d.db.Order("id DESC").Limit(limit).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
