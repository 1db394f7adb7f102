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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jacksonjkk/Thresho/directory"
	"github.com/jacksonjkk/Thresho/event"
	"github.com/jacksonjkk/Thresho/proposal"
	"github.com/jacksonjkk/Thresho/settlement"
)

const testAccount = "GTESTACCOUNT"

type acceptingSettlement struct{}

func (acceptingSettlement) Submit(
	_ context.Context,
	_ []byte,
) (settlement.Result, error) {
	return settlement.Result{Ref: "settle-ref-1"}, nil
}

type testApi struct {
	api       *Api
	store     *proposal.Store
	directory *directory.StaticDirectory
}

func newTestApi(t *testing.T) *testApi {
	t.Helper()
	dir := directory.NewStaticDirectory(map[string]directory.StaticAccount{
		testAccount: {
			Signers: []directory.Signer{
				{Identity: "A", Weight: 1},
				{Identity: "B", Weight: 1},
			},
			Thresholds: directory.ThresholdSet{Low: 1, Medium: 2, High: 3},
		},
	})
	store := proposal.NewStore(proposal.StoreConfig{
		PromRegistry: prometheus.NewRegistry(),
		EventBus:     event.NewEventBus(nil),
		Directory:    dir,
		Settlement:   acceptingSettlement{},
	})
	return &testApi{
		api:       New(ApiConfig{}, store),
		store:     store,
		directory: dir,
	}
}

func (ta *testApi) do(
	t *testing.T,
	method string,
	path string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	recorder := httptest.NewRecorder()
	ta.api.mux().ServeHTTP(recorder, req)
	return recorder
}

func (ta *testApi) createProposal(t *testing.T) ProposalResponse {
	t.Helper()
	recorder := ta.do(t, http.MethodPost, "/v1/proposals",
		CreateProposalRequest{
			Source:      testAccount,
			Destination: "GDESTACCOUNT",
			Amount:      "100",
			Asset:       "XLM",
			Level:       "medium",
		},
	)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var resp ProposalResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp
}

func TestRootAndHealth(t *testing.T) {
	ta := newTestApi(t)
	recorder := ta.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var root RootResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &root))
	assert.Equal(t, "thresho", root.Service)

	recorder = ta.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &health))
	assert.True(t, health.IsHealthy)
}

func TestCreateProposal(t *testing.T) {
	ta := newTestApi(t)
	resp := ta.createProposal(t)
	assert.NotEmpty(t, resp.Id)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "medium", resp.Level)
	assert.NotEmpty(t, resp.Template)
	assert.Empty(t, resp.Approvals)
}

func TestCreateProposalMalformedBody(t *testing.T) {
	ta := newTestApi(t)
	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/proposals",
		bytes.NewBufferString("not json"),
	)
	recorder := httptest.NewRecorder()
	ta.api.mux().ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateProposalInvalidSpec(t *testing.T) {
	ta := newTestApi(t)
	recorder := ta.do(t, http.MethodPost, "/v1/proposals",
		CreateProposalRequest{
			Source:      testAccount,
			Destination: "GDESTACCOUNT",
			Amount:      "-5",
			Asset:       "XLM",
		},
	)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateProposalUnknownLevel(t *testing.T) {
	ta := newTestApi(t)
	recorder := ta.do(t, http.MethodPost, "/v1/proposals",
		CreateProposalRequest{
			Source:      testAccount,
			Destination: "GDESTACCOUNT",
			Amount:      "10",
			Asset:       "XLM",
			Level:       "urgent",
		},
	)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetProposal(t *testing.T) {
	ta := newTestApi(t)
	created := ta.createProposal(t)
	recorder := ta.do(
		t,
		http.MethodGet,
		"/v1/proposals/"+created.Id,
		nil,
	)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp ProposalResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, created.Id, resp.Id)
}

func TestGetProposalNotFound(t *testing.T) {
	ta := newTestApi(t)
	recorder := ta.do(t, http.MethodGet, "/v1/proposals/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListPending(t *testing.T) {
	ta := newTestApi(t)
	created := ta.createProposal(t)
	recorder := ta.do(t, http.MethodGet, "/v1/proposals", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp []ProposalResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, created.Id, resp[0].Id)
}

func TestApproveToQuorum(t *testing.T) {
	ta := newTestApi(t)
	created := ta.createProposal(t)

	recorder := ta.do(
		t,
		http.MethodPost,
		"/v1/proposals/"+created.Id+"/approve",
		ApproveProposalRequest{
			SignerIdentity: "A",
			SignedArtifact: "envelope-a",
		},
	)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp ProposalResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	require.Len(t, resp.Approvals, 1)

	recorder = ta.do(
		t,
		http.MethodPost,
		"/v1/proposals/"+created.Id+"/approve",
		ApproveProposalRequest{
			SignerIdentity: "B",
			SignedArtifact: "envelope-b",
		},
	)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	// The quorum-reaching approval returns the terminal state
	assert.Equal(t, "submitted", resp.Status)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "settle-ref-1", resp.Result.Ref)
}

func TestApproveUnknownSigner(t *testing.T) {
	ta := newTestApi(t)
	created := ta.createProposal(t)
	recorder := ta.do(
		t,
		http.MethodPost,
		"/v1/proposals/"+created.Id+"/approve",
		ApproveProposalRequest{
			SignerIdentity: "EVE",
			SignedArtifact: "envelope-eve",
		},
	)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestApproveMissingFields(t *testing.T) {
	ta := newTestApi(t)
	created := ta.createProposal(t)
	recorder := ta.do(
		t,
		http.MethodPost,
		"/v1/proposals/"+created.Id+"/approve",
		ApproveProposalRequest{SignerIdentity: "A"},
	)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRejectThenApproveConflict(t *testing.T) {
	ta := newTestApi(t)
	created := ta.createProposal(t)
	recorder := ta.do(
		t,
		http.MethodPost,
		"/v1/proposals/"+created.Id+"/reject",
		nil,
	)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp ProposalResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Status)

	recorder = ta.do(
		t,
		http.MethodPost,
		"/v1/proposals/"+created.Id+"/approve",
		ApproveProposalRequest{
			SignerIdentity: "A",
			SignedArtifact: "envelope-a",
		},
	)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestApproveUnknownAccount(t *testing.T) {
	ta := newTestApi(t)
	// Proposal against an account the directory does not know maps to a
	// bad request at approval time via account-not-found
	recorder := ta.do(t, http.MethodPost, "/v1/proposals",
		CreateProposalRequest{
			Source:      "GUNKNOWNACCT",
			Destination: "GDESTACCOUNT",
			Amount:      "10",
			Asset:       "XLM",
		},
	)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created ProposalResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	recorder = ta.do(
		t,
		http.MethodPost,
		"/v1/proposals/"+created.Id+"/approve",
		ApproveProposalRequest{
			SignerIdentity: "A",
			SignedArtifact: "envelope-a",
		},
	)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	ta := newTestApi(t)
	ta.api.config.ListenAddress = ":0"
	require.NoError(t, ta.api.Start(t.Context()))
	// Second start fails while running
	require.Error(t, ta.api.Start(t.Context()))
	require.NoError(t, ta.api.Stop(t.Context()))
	// Stop is idempotent
	require.NoError(t, ta.api.Stop(t.Context()))
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	dir := directory.NewStaticDirectory(nil)
	store := proposal.NewStore(proposal.StoreConfig{
		PromRegistry: registry,
		EventBus:     event.NewEventBus(nil),
		Directory:    dir,
		Settlement:   acceptingSettlement{},
	})
	a := New(ApiConfig{PromGatherer: registry}, store)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	a.mux().ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(
		t,
		recorder.Body.String(),
		"thresho_proposals_created_total",
	)
}
