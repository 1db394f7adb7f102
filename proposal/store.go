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
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/jacksonjkk/Thresho/directory"
	"github.com/jacksonjkk/Thresho/event"
	"github.com/jacksonjkk/Thresho/policy"
	"github.com/jacksonjkk/Thresho/quorum"
	"github.com/jacksonjkk/Thresho/settlement"
)

type StoreConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Directory    directory.AccountDirectory
	Settlement   settlement.Service
	Policy       policy.Config
}

// Store is the system of record for transfer proposals. It holds every
// proposal and its accumulated approvals, serializes mutation per proposal
// id, and triggers execution synchronously from within approval recording:
// record, evaluate quorum, and maybe dispatch are a single atomic operation
// with respect to other events on the same proposal, which is what makes
// settlement at-most-once. Terminal proposals are retained for audit and
// never deleted
type Store struct {
	config  StoreConfig
	logger  *slog.Logger
	metrics struct {
		proposalsCreated  prometheus.Counter
		proposalsPending  prometheus.Gauge
		approvalsRecorded prometheus.Counter
		settlements       *prometheus.CounterVec
		rejections        prometheus.Counter
	}
	eventBus   *event.EventBus
	directory  directory.AccountDirectory
	settlement settlement.Service

	mu      sync.RWMutex
	entries map[string]*storeEntry
}

// storeEntry pairs a proposal with its mutual-exclusion lane. The entry
// mutex covers approval upsert, quorum evaluation, dispatch, and the status
// transition; operations on other proposals proceed fully in parallel
type storeEntry struct {
	mu sync.Mutex
	p  *Proposal
	// latestArtifact is the most recently recorded signed artifact across
	// all approvals, including replacements. It is what gets submitted when
	// quorum is reached (last-approval-wins)
	latestArtifact []byte
}

func NewStore(config StoreConfig) *Store {
	s := &Store{
		config:     config,
		eventBus:   config.EventBus,
		directory:  config.Directory,
		settlement: config.Settlement,
		entries:    make(map[string]*storeEntry),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		s.logger = config.Logger
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	s.metrics.proposalsCreated = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "thresho_proposals_created_total",
			Help: "total proposals admitted",
		},
	)
	s.metrics.proposalsPending = promautoFactory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thresho_proposals_pending",
			Help: "current count of pending proposals",
		},
	)
	s.metrics.approvalsRecorded = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "thresho_approvals_recorded_total",
			Help: "total approvals recorded, including replacements",
		},
	)
	s.metrics.settlements = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thresho_settlements_total",
			Help: "settlement submissions by outcome",
		},
		[]string{"outcome"},
	)
	s.metrics.rejections = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "thresho_rejections_total",
			Help: "total proposals explicitly rejected",
		},
	)
	return s
}

func validateSpec(spec Spec) error {
	if spec.Source == "" || strings.ContainsAny(spec.Source, " \t\n") {
		return &InvalidSpecError{Reason: "malformed source account"}
	}
	if spec.Destination == "" ||
		strings.ContainsAny(spec.Destination, " \t\n") {
		return &InvalidSpecError{Reason: "malformed destination account"}
	}
	if spec.Asset == "" {
		return &InvalidSpecError{Reason: "missing asset"}
	}
	if !spec.Level.Valid() {
		return &InvalidSpecError{Reason: "unknown approval level"}
	}
	amount, err := decimal.NewFromString(spec.Amount)
	if err != nil {
		return &InvalidSpecError{Reason: "malformed amount"}
	}
	if !amount.IsPositive() {
		return &InvalidSpecError{Reason: "amount must be positive"}
	}
	return nil
}

// Create validates and admits a transfer proposal. The admission policy is
// evaluated before anything is persisted: a denied or invalid proposal never
// exists
func (s *Store) Create(_ context.Context, spec Spec) (Proposal, error) {
	if err := validateSpec(spec); err != nil {
		return Proposal{}, err
	}
	decision := policy.Evaluate(
		policy.Attributes{
			Amount:    spec.Amount,
			Asset:     spec.Asset,
			Category:  spec.Category,
			Timestamp: time.Now(),
		},
		s.config.Policy,
	)
	if !decision.Admit {
		return Proposal{}, &PolicyDeniedError{Reason: decision.Reason}
	}
	template, err := buildTemplate(spec)
	if err != nil {
		return Proposal{}, &InvalidSpecError{Reason: err.Error()}
	}
	p := &Proposal{
		Id:          uuid.NewString(),
		Source:      spec.Source,
		Destination: spec.Destination,
		Amount:      spec.Amount,
		Asset:       spec.Asset,
		Memo:        spec.Memo,
		Category:    spec.Category,
		Level:       spec.Level,
		Template:    template,
		Approvals:   make(map[string]Approval),
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}
	s.mu.Lock()
	s.entries[p.Id] = &storeEntry{p: p}
	s.mu.Unlock()
	s.metrics.proposalsCreated.Inc()
	s.metrics.proposalsPending.Inc()
	s.logger.Info(
		"created proposal",
		"component", "proposal",
		"proposal_id", p.Id,
		"source", p.Source,
		"level", p.Level,
	)
	s.eventBus.Publish(
		CreatedEventType,
		event.NewEvent(
			CreatedEventType,
			CreatedEvent{
				Id:     p.Id,
				Source: p.Source,
				Level:  p.Level,
			},
		),
	)
	return p.snapshot(), nil
}

func (s *Store) getEntry(id string) (*storeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// RecordApproval upserts a signer's attestation and evaluates quorum within
// the same critical section, dispatching to settlement when the threshold is
// reached. The returned snapshot reflects the post-evaluation state, which
// may already be terminal.
//
// The signer set and thresholds are both read from the directory before any
// mutation: an approval that cannot verify its signer is not recorded, and a
// directory failure leaves the proposal untouched
func (s *Store) RecordApproval(
	ctx context.Context,
	id string,
	signerIdentity string,
	signedArtifact []byte,
) (Proposal, error) {
	entry, err := s.getEntry(id)
	if err != nil {
		return Proposal{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	p := entry.p
	if p.Status != StatusPending {
		return Proposal{}, &InvalidStateError{Id: p.Id, Status: p.Status}
	}
	// Verify signer against the account's current signer set
	signers, err := s.directory.GetSigners(ctx, p.Source)
	if err != nil {
		return Proposal{}, err
	}
	var signerWeight uint32
	signerFound := false
	for _, signer := range signers {
		if signer.Identity == signerIdentity {
			signerWeight = signer.Weight
			signerFound = true
			break
		}
	}
	if !signerFound {
		return Proposal{}, &UnknownSignerError{Identity: signerIdentity}
	}
	// Read thresholds fresh for this evaluation
	thresholds, err := s.directory.GetThresholds(ctx, p.Source)
	if err != nil {
		return Proposal{}, err
	}
	// Upsert approval. A repeat approval from the same signer replaces the
	// earlier entry rather than adding weight
	p.Approvals[signerIdentity] = Approval{
		SignerIdentity: signerIdentity,
		Weight:         signerWeight,
		Artifact:       signedArtifact,
		RecordedAt:     time.Now(),
	}
	entry.latestArtifact = signedArtifact
	s.metrics.approvalsRecorded.Inc()
	// Evaluate quorum
	quorumResult := quorum.Evaluate(p.ApprovalWeights(), p.Level, thresholds)
	s.logger.Debug(
		"recorded approval",
		"component", "proposal",
		"proposal_id", p.Id,
		"signer", signerIdentity,
		"total_weight", quorumResult.TotalWeight,
		"required_weight", quorumResult.RequiredWeight,
		"met", quorumResult.Met,
	)
	s.eventBus.Publish(
		ApprovalEventType,
		event.NewEvent(
			ApprovalEventType,
			ApprovalEvent{
				Id:             p.Id,
				SignerIdentity: signerIdentity,
				TotalWeight:    quorumResult.TotalWeight,
				RequiredWeight: quorumResult.RequiredWeight,
				Met:            quorumResult.Met,
			},
		),
	)
	if quorumResult.Met {
		s.dispatch(ctx, entry)
	}
	return p.snapshot(), nil
}

// RecordRejection moves a pending proposal to the terminal Rejected state
func (s *Store) RecordRejection(
	_ context.Context,
	id string,
) (Proposal, error) {
	entry, err := s.getEntry(id)
	if err != nil {
		return Proposal{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	p := entry.p
	if p.Status != StatusPending {
		return Proposal{}, &InvalidStateError{Id: p.Id, Status: p.Status}
	}
	p.Status = StatusRejected
	s.metrics.proposalsPending.Dec()
	s.metrics.rejections.Inc()
	s.logger.Info(
		"rejected proposal",
		"component", "proposal",
		"proposal_id", p.Id,
	)
	s.eventBus.Publish(
		RejectedEventType,
		event.NewEvent(
			RejectedEventType,
			RejectedEvent{Proposal: p.snapshot()},
		),
	)
	return p.snapshot(), nil
}

// Get returns a snapshot of the proposal with the given id
func (s *Store) Get(id string) (Proposal, error) {
	entry, err := s.getEntry(id)
	if err != nil {
		return Proposal{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.p.snapshot(), nil
}

// ListPending returns snapshots of all proposals still awaiting quorum
func (s *Store) ListPending() []Proposal {
	s.mu.RLock()
	entries := make([]*storeEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()
	ret := []Proposal{}
	for _, entry := range entries {
		entry.mu.Lock()
		if entry.p.Status == StatusPending {
			ret = append(ret, entry.p.snapshot())
		}
		entry.mu.Unlock()
	}
	return ret
}
