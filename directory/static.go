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
)

// StaticAccount describes a single account for the static directory
type StaticAccount struct {
	Signers    []Signer
	Thresholds ThresholdSet
}

// StaticDirectory is an in-memory AccountDirectory, used in development mode
// and in tests. Accounts can be updated between calls to exercise the
// thresholds-read-fresh behavior
type StaticDirectory struct {
	mu       sync.RWMutex
	accounts map[string]StaticAccount
}

func NewStaticDirectory(
	accounts map[string]StaticAccount,
) *StaticDirectory {
	d := &StaticDirectory{
		accounts: make(map[string]StaticAccount),
	}
	for id, acct := range accounts {
		d.accounts[id] = acct
	}
	return d
}

// SetAccount adds or replaces an account definition
func (d *StaticDirectory) SetAccount(accountId string, acct StaticAccount) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[accountId] = acct
}

func (d *StaticDirectory) GetSigners(
	_ context.Context,
	accountId string,
) ([]Signer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acct, ok := d.accounts[accountId]
	if !ok {
		return nil, ErrAccountNotFound
	}
	ret := make([]Signer, len(acct.Signers))
	copy(ret, acct.Signers)
	return ret, nil
}

func (d *StaticDirectory) GetThresholds(
	_ context.Context,
	accountId string,
) (ThresholdSet, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acct, ok := d.accounts[accountId]
	if !ok {
		return ThresholdSet{}, ErrAccountNotFound
	}
	return acct.Thresholds, nil
}
