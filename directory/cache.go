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

package directory

import (
	"context"
	"sync"
	"time"
)

// CachingDirectory wraps an AccountDirectory with a TTL-bounded snapshot
// cache. With a zero TTL every read goes to the backend, which is the
// default: thresholds must be read fresh at every approval event unless the
// deployment explicitly accepts staleness. Invalidate drops a cached
// snapshot early
type CachingDirectory struct {
	backend AccountDirectory
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	signers    []Signer
	thresholds ThresholdSet
	fetchedAt  time.Time
}

func NewCachingDirectory(
	backend AccountDirectory,
	ttl time.Duration,
) *CachingDirectory {
	return &CachingDirectory{
		backend: backend,
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
	}
}

// Invalidate drops any cached snapshot for the given account
func (d *CachingDirectory) Invalidate(accountId string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, accountId)
}

func (d *CachingDirectory) GetSigners(
	ctx context.Context,
	accountId string,
) ([]Signer, error) {
	entry, err := d.load(ctx, accountId)
	if err != nil {
		return nil, err
	}
	ret := make([]Signer, len(entry.signers))
	copy(ret, entry.signers)
	return ret, nil
}

func (d *CachingDirectory) GetThresholds(
	ctx context.Context,
	accountId string,
) (ThresholdSet, error) {
	entry, err := d.load(ctx, accountId)
	if err != nil {
		return ThresholdSet{}, err
	}
	return entry.thresholds, nil
}

func (d *CachingDirectory) load(
	ctx context.Context,
	accountId string,
) (*cacheEntry, error) {
	d.mu.Lock()
	cached, ok := d.entries[accountId]
	d.mu.Unlock()
	if ok && d.ttl > 0 && time.Since(cached.fetchedAt) < d.ttl {
		return cached, nil
	}
	signers, err := d.backend.GetSigners(ctx, accountId)
	if err != nil {
		return nil, err
	}
	thresholds, err := d.backend.GetThresholds(ctx, accountId)
	if err != nil {
		return nil, err
	}
	entry := &cacheEntry{
		signers:    signers,
		thresholds: thresholds,
		fetchedAt:  time.Now(),
	}
	d.mu.Lock()
	d.entries[accountId] = entry
	d.mu.Unlock()
	return entry, nil
}
