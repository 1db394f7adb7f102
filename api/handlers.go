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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jacksonjkk/Thresho/directory"
	"github.com/jacksonjkk/Thresho/proposal"
)

const apiVersion = "0.1.0"

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// writeStoreError maps typed store errors onto HTTP statuses
func (a *Api) writeStoreError(w http.ResponseWriter, err error) {
	var invalidSpecErr *proposal.InvalidSpecError
	var policyDeniedErr *proposal.PolicyDeniedError
	var invalidStateErr *proposal.InvalidStateError
	var unknownSignerErr *proposal.UnknownSignerError
	var unavailableErr *directory.UnavailableError
	switch {
	case errors.Is(err, proposal.ErrNotFound):
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			err.Error(),
		)
	case errors.As(err, &invalidSpecErr),
		errors.As(err, &policyDeniedErr):
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
	case errors.As(err, &invalidStateErr):
		writeError(
			w,
			http.StatusConflict,
			"Conflict",
			err.Error(),
		)
	case errors.As(err, &unknownSignerErr):
		writeError(
			w,
			http.StatusForbidden,
			"Forbidden",
			err.Error(),
		)
	case errors.Is(err, directory.ErrAccountNotFound):
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
	case errors.As(err, &unavailableErr):
		// Transient directory failure; the operation did not mutate any
		// proposal state and may be retried
		writeError(
			w,
			http.StatusServiceUnavailable,
			"Service Unavailable",
			err.Error(),
		)
	default:
		a.logger.Error(
			"unexpected store error",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"unexpected error",
		)
	}
}

// handleRoot handles GET / and returns API metadata
func (a *Api) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Service: "thresho",
		Version: apiVersion,
	})
}

// handleHealth handles GET /health
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleCreateProposal handles POST /v1/proposals. Admission (validation
// and policy) happens inside the store before anything is persisted
func (a *Api) handleCreateProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"malformed request body",
		)
		return
	}
	level, err := directory.ParseLevel(req.Level)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	p, err := a.store.Create(r.Context(), proposal.Spec{
		Source:      req.Source,
		Destination: req.Destination,
		Amount:      req.Amount,
		Asset:       req.Asset,
		Memo:        req.Memo,
		Category:    req.Category,
		Level:       level,
	})
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProposalResponse(p))
}

// handleListPending handles GET /v1/proposals and returns proposals still
// awaiting quorum
func (a *Api) handleListPending(
	w http.ResponseWriter,
	_ *http.Request,
) {
	pending := a.store.ListPending()
	ret := make([]ProposalResponse, 0, len(pending))
	for _, p := range pending {
		ret = append(ret, newProposalResponse(p))
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleGetProposal handles GET /v1/proposals/{id}
func (a *Api) handleGetProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	p, err := a.store.Get(r.PathValue("id"))
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProposalResponse(p))
}

// handleApproveProposal handles POST /v1/proposals/{id}/approve. The
// response reflects the post-evaluation state, which may already be
// terminal if this approval reached quorum
func (a *Api) handleApproveProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req ApproveProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"malformed request body",
		)
		return
	}
	if req.SignerIdentity == "" || req.SignedArtifact == "" {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"signer_identity and signed_artifact are required",
		)
		return
	}
	p, err := a.store.RecordApproval(
		r.Context(),
		r.PathValue("id"),
		req.SignerIdentity,
		[]byte(req.SignedArtifact),
	)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProposalResponse(p))
}

// handleRejectProposal handles POST /v1/proposals/{id}/reject
func (a *Api) handleRejectProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	p, err := a.store.RecordRejection(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProposalResponse(p))
}
