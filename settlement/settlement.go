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

// Package settlement defines the contract with the external system that
// finally executes a fully-authorized transfer. Any non-success response is
// final for the submitting proposal; retry policy (and any timeout on the
// submission call) belongs to the service behind this interface, not to the
// approval core.
package settlement

import (
	"context"
	"fmt"
)

// Result describes a successful settlement
type Result struct {
	// Ref is the settlement service's reference for the executed transfer
	Ref string
	// Detail is an opaque human-readable summary preserved for audit
	Detail string
}

// SubmissionError is a typed rejection from the settlement service. It
// covers ledger rejections as well as insufficient-signature rejections of
// an artifact that individually lacks the required attestations
type SubmissionError struct {
	Code   string
	Detail string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("settlement rejected: %s (%s)", e.Code, e.Detail)
}

// Service submits a fully-signed transfer envelope for execution
type Service interface {
	Submit(ctx context.Context, signedArtifact []byte) (Result, error)
}
