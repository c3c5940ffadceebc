// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/btree"
	"github.com/holiman/uint256"

	"github.com/telosnetwork/tevm-erigon/core/types/accounts"
	"github.com/telosnetwork/tevm-erigon/crypto"
)

var ErrOverrideClosed = errors.New("state override already applied or discarded")

// StateOverride buffers corrections to accounts and storage. Nothing reaches the store before
// Apply, which writes everything through one StateWriter; running Apply inside a single
// read-write transaction makes the corrections all-or-nothing.
//
// Each account is read from the reader on first touch, so several corrections to the same
// account compose on top of its current state.
type StateOverride struct {
	mu       sync.Mutex
	reader   StateReader
	accounts *btree.BTreeG[*overrideAccount]
	search   overrideAccount
	closed   bool
}

type overrideAccount struct {
	address  common.Address
	original *accounts.Account // nil if the account does not exist
	account  accounts.Account
	code     []byte
	codeSet  bool
	storage  *btree.BTreeG[*overrideSlot]
}

type overrideSlot struct {
	key      common.Hash
	original uint256.Int
	value    uint256.Int
}

func lessAccount(a, b *overrideAccount) bool { return bytes.Compare(a.address[:], b.address[:]) < 0 }
func lessSlot(a, b *overrideSlot) bool       { return bytes.Compare(a.key[:], b.key[:]) < 0 }

func NewStateOverride(reader StateReader) *StateOverride {
	return &StateOverride{
		reader:   reader,
		accounts: btree.NewG[*overrideAccount](32, lessAccount),
	}
}

func (o *StateOverride) touch(address common.Address) (*overrideAccount, error) {
	if o.closed {
		return nil, ErrOverrideClosed
	}
	o.search.address = address
	if a, ok := o.accounts.Get(&o.search); ok {
		return a, nil
	}
	original, err := o.reader.ReadAccountData(address)
	if err != nil {
		return nil, fmt.Errorf("override %x: read account: %w", address, err)
	}
	a := &overrideAccount{
		address:  address,
		original: original,
		storage:  btree.NewG[*overrideSlot](32, lessSlot),
	}
	if original != nil {
		a.account = *original
	} else {
		a.account = accounts.NewAccount()
		if a.account.Incarnation, err = o.reader.ReadAccountIncarnation(address); err != nil {
			return nil, fmt.Errorf("override %x: read incarnation: %w", address, err)
		}
	}
	o.accounts.ReplaceOrInsert(a)
	return a, nil
}

func (o *StateOverride) OverrideBalance(address common.Address, balance *uint256.Int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, err := o.touch(address)
	if err != nil {
		return err
	}
	a.account.Balance.Set(balance)
	return nil
}

func (o *StateOverride) OverrideNonce(address common.Address, nonce uint64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, err := o.touch(address)
	if err != nil {
		return err
	}
	a.account.Nonce = nonce
	return nil
}

// OverrideCode replaces the account code; empty code resets the code hash. Giving code to an
// account at the non-contract incarnation moves it to the first contract incarnation, so storage
// staged for it lands where the engine will look.
func (o *StateOverride) OverrideCode(address common.Address, code []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, err := o.touch(address)
	if err != nil {
		return err
	}
	a.code = common.CopyBytes(code)
	a.codeSet = true
	if len(code) == 0 {
		a.account.CodeHash = crypto.EmptyCodeHash
	} else {
		a.account.CodeHash = crypto.Keccak256Hash(code)
		if a.account.Incarnation == NonContractIncarnation {
			a.account.Incarnation = FirstContractIncarnation
		}
	}
	return nil
}

func (o *StateOverride) OverrideStorage(address common.Address, key common.Hash, value *uint256.Int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, err := o.touch(address)
	if err != nil {
		return err
	}
	if s, ok := a.storage.Get(&overrideSlot{key: key}); ok {
		s.value.Set(value)
		return nil
	}
	s := &overrideSlot{key: key}
	s.value.Set(value)
	if a.original != nil {
		enc, err := o.reader.ReadAccountStorage(address, a.account.Incarnation, &key)
		if err != nil {
			return fmt.Errorf("override %x: read storage %x: %w", address, key, err)
		}
		s.original.SetBytes(enc)
	}
	a.storage.ReplaceOrInsert(s)
	return nil
}

// Len returns the number of accounts with pending corrections.
func (o *StateOverride) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.accounts.Len()
}

// Accounts returns the overridden addresses in ascending order.
func (o *StateOverride) Accounts() []common.Address {
	o.mu.Lock()
	defer o.mu.Unlock()
	addrs := make([]common.Address, 0, o.accounts.Len())
	o.accounts.Ascend(func(a *overrideAccount) bool {
		addrs = append(addrs, a.address)
		return true
	})
	return addrs
}

// Account returns the pending account record for address.
func (o *StateOverride) Account(address common.Address) (accounts.Account, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.search.address = address
	a, ok := o.accounts.Get(&o.search)
	if !ok {
		return accounts.Account{}, false
	}
	return a.account, true
}

// Storage returns the pending value of a storage slot.
func (o *StateOverride) Storage(address common.Address, key common.Hash) (uint256.Int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.search.address = address
	a, ok := o.accounts.Get(&o.search)
	if !ok {
		return uint256.Int{}, false
	}
	s, ok := a.storage.Get(&overrideSlot{key: key})
	if !ok {
		return uint256.Int{}, false
	}
	return s.value, true
}

// Apply writes all corrections in address order: code, then the account record, then storage
// in key order. The override cannot be used afterwards.
func (o *StateOverride) Apply(ctx context.Context, w StateWriter) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOverrideClosed
	}
	o.closed = true

	var innerErr error
	o.accounts.Ascend(func(a *overrideAccount) bool {
		if innerErr = ctx.Err(); innerErr != nil {
			return false
		}
		if a.codeSet && len(a.code) > 0 {
			if innerErr = w.UpdateAccountCode(a.address, a.account.Incarnation, a.account.CodeHash, a.code); innerErr != nil {
				innerErr = fmt.Errorf("override %x code: %w", a.address, innerErr)
				return false
			}
		}
		if innerErr = w.UpdateAccountData(a.address, a.original, &a.account); innerErr != nil {
			innerErr = fmt.Errorf("override %x: %w", a.address, innerErr)
			return false
		}
		a.storage.Ascend(func(s *overrideSlot) bool {
			if innerErr = w.WriteAccountStorage(a.address, a.account.Incarnation, &s.key, &s.original, &s.value); innerErr != nil {
				innerErr = fmt.Errorf("override %x storage %x: %w", a.address, s.key, innerErr)
				return false
			}
			return true
		})
		return innerErr == nil
	})
	return innerErr
}

// Discard drops every pending correction.
func (o *StateOverride) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.accounts.Clear(false)
}
