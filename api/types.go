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

package api

import (
	"time"

	"github.com/jacksonjkk/Thresho/proposal"
)

// RootResponse is returned by GET /
type RootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the error body for all endpoints
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// CreateProposalRequest is the body of POST /v1/proposals
type CreateProposalRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Asset       string `json:"asset"`
	Memo        string `json:"memo,omitempty"`
	Category    string `json:"category,omitempty"`
	Level       string `json:"level,omitempty"`
}

// ApproveProposalRequest is the body of POST /v1/proposals/{id}/approve
type ApproveProposalRequest struct {
	SignerIdentity string `json:"signer_identity"`
	SignedArtifact string `json:"signed_artifact"`
}

// ApprovalResponse is one signer's recorded attestation
type ApprovalResponse struct {
	SignerIdentity string    `json:"signer_identity"`
	Weight         uint32    `json:"weight"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// ResultResponse is the terminal settlement outcome
type ResultResponse struct {
	Ref         string    `json:"ref,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProposalResponse represents a proposal
type ProposalResponse struct {
	Id          string             `json:"id"`
	Source      string             `json:"source"`
	Destination string             `json:"destination"`
	Amount      string             `json:"amount"`
	Asset       string             `json:"asset"`
	Memo        string             `json:"memo,omitempty"`
	Category    string             `json:"category,omitempty"`
	Level       string             `json:"level"`
	Template    string             `json:"template"`
	Status      string             `json:"status"`
	Approvals   []ApprovalResponse `json:"approvals"`
	Result      *ResultResponse    `json:"result,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func newProposalResponse(p proposal.Proposal) ProposalResponse {
	ret := ProposalResponse{
		Id:          p.Id,
		Source:      p.Source,
		Destination: p.Destination,
		Amount:      p.Amount,
		Asset:       p.Asset,
		Memo:        p.Memo,
		Category:    p.Category,
		Level:       string(p.Level),
		Template:    string(p.Template),
		Status:      string(p.Status),
		Approvals:   []ApprovalResponse{},
		CreatedAt:   p.CreatedAt,
	}
	for _, approval := range p.Approvals {
		ret.Approvals = append(ret.Approvals, ApprovalResponse{
			SignerIdentity: approval.SignerIdentity,
			Weight:         approval.Weight,
			RecordedAt:     approval.RecordedAt,
		})
	}
	if p.Result != nil {
		ret.Result = &ResultResponse{
			Ref:         p.Result.Ref,
			Detail:      p.Result.Detail,
			CompletedAt: p.Result.CompletedAt,
		}
	}
	return ret
}
