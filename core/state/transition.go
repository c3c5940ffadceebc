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
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/telosnetwork/tevm-erigon/core/types/accounts"
	"github.com/telosnetwork/tevm-erigon/crypto"
)

// AccountInfo is the account as seen by the execution engine.
// Code is nil when the engine did not load it.
type AccountInfo struct {
	Balance  uint256.Int
	Nonce    uint64
	CodeHash common.Hash
	Code     []byte
}

func (i *AccountInfo) IsEmpty() bool {
	return i.Nonce == 0 && i.Balance.IsZero() && (i.CodeHash == crypto.EmptyCodeHash || i.CodeHash == (common.Hash{}))
}

func (i *AccountInfo) hasCode() bool {
	return i.CodeHash != crypto.EmptyCodeHash && i.CodeHash != (common.Hash{})
}

func (i *AccountInfo) sameAs(o *AccountInfo) bool {
	return i.Nonce == o.Nonce && i.Balance.Eq(&o.Balance) && i.CodeHash == o.CodeHash
}

func (i *AccountInfo) toAccount(incarnation uint64) accounts.Account {
	acc := accounts.Account{
		Nonce:       i.Nonce,
		Balance:     i.Balance,
		CodeHash:    i.CodeHash,
		Incarnation: incarnation,
	}
	if acc.CodeHash == (common.Hash{}) {
		acc.CodeHash = crypto.EmptyCodeHash
	}
	return acc
}

// StorageSlot is one storage cell touched during the block.
// Cold only drives access-cost caching and has no effect on comparisons.
type StorageSlot struct {
	OriginalValue uint256.Int
	PresentValue  uint256.Int
	Cold          bool
}

func (s *StorageSlot) IsChanged() bool {
	return !s.OriginalValue.Eq(&s.PresentValue)
}

type AccountStatus uint8

const (
	Loaded AccountStatus = iota
	LoadedNotExisting
	InMemoryChange
	Changed
	Destroyed
	DestroyedChanged
	DestroyedAgain
)

func (s AccountStatus) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case LoadedNotExisting:
		return "loaded-not-existing"
	case InMemoryChange:
		return "in-memory-change"
	case Changed:
		return "changed"
	case Destroyed:
		return "destroyed"
	case DestroyedChanged:
		return "destroyed-changed"
	case DestroyedAgain:
		return "destroyed-again"
	default:
		return fmt.Sprintf("AccountStatus(%d)", uint8(s))
	}
}

func (s AccountStatus) IsDestroyed() bool {
	return s == Destroyed || s == DestroyedChanged || s == DestroyedAgain
}

// TransitionAccount is the net effect of a block on one account.
// A nil Info is a deletion.
type TransitionAccount struct {
	Info                *AccountInfo
	PreviousInfo        *AccountInfo
	Status              AccountStatus
	Storage             map[common.Hash]*StorageSlot
	StorageWasDestroyed bool
}

// InfoChanged reports whether balance, nonce or code hash differ from the previous info,
// or the account appeared or disappeared.
func (t *TransitionAccount) InfoChanged() bool {
	if t.Info == nil || t.PreviousInfo == nil {
		return (t.Info == nil) != (t.PreviousInfo == nil)
	}
	return !t.Info.sameAs(t.PreviousInfo)
}

// ChangedSlots returns the keys whose present value differs from the original one, sorted.
func (t *TransitionAccount) ChangedSlots() []common.Hash {
	var keys []common.Hash
	for k, slot := range t.Storage {
		if slot.IsChanged() {
			keys = append(keys, k)
		}
	}
	sortHashes(keys)
	return keys
}

// IsModified reports whether the block left any trace on the account.
func (t *TransitionAccount) IsModified() bool {
	return t.InfoChanged() || t.StorageWasDestroyed || len(t.ChangedSlots()) > 0
}

// incarnation is the incarnation the account holds once the transition is committed on top of r.
// Accounts carrying code never sit at the non-contract incarnation.
func (t *TransitionAccount) incarnation(address common.Address, r StateReader) (uint64, error) {
	original, err := r.ReadAccountData(address)
	if err != nil {
		return 0, err
	}
	var inc uint64
	switch {
	case original == nil:
		if inc, err = r.ReadAccountIncarnation(address); err != nil {
			return 0, err
		}
	case t.StorageWasDestroyed || t.Info == nil:
		inc = original.Incarnation + 1
	default:
		inc = original.Incarnation
	}
	if t.Info != nil && t.Info.hasCode() && inc == NonContractIncarnation {
		inc = FirstContractIncarnation
	}
	return inc, nil
}

// TransitionState is the set of account transitions produced by executing one block.
type TransitionState map[common.Address]*TransitionAccount

func (ts TransitionState) SortedAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(ts))
	for a := range ts {
		addrs = append(addrs, a)
	}
	slices.SortFunc(addrs, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })
	return addrs
}

func sortHashes(keys []common.Hash) {
	slices.SortFunc(keys, func(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) })
}

// Commit writes the transitions on top of the state visible through r, in address order.
func (ts TransitionState) Commit(r StateReader, w StateWriter) error {
	for _, address := range ts.SortedAddresses() {
		t := ts[address]
		original, err := r.ReadAccountData(address)
		if err != nil {
			return fmt.Errorf("commit %x: %w", address, err)
		}
		if t.Info == nil {
			if original != nil {
				if err := w.DeleteAccount(address, original); err != nil {
					return fmt.Errorf("commit %x: %w", address, err)
				}
			}
			continue
		}
		incarnation, err := t.incarnation(address, r)
		if err != nil {
			return fmt.Errorf("commit %x: %w", address, err)
		}
		if original == nil && incarnation > NonContractIncarnation {
			if err := w.CreateContract(address); err != nil {
				return fmt.Errorf("commit %x: %w", address, err)
			}
		}
		acc := t.Info.toAccount(incarnation)
		if len(t.Info.Code) > 0 {
			if err := w.UpdateAccountCode(address, incarnation, acc.CodeHash, t.Info.Code); err != nil {
				return fmt.Errorf("commit %x code: %w", address, err)
			}
		}
		if err := w.UpdateAccountData(address, original, &acc); err != nil {
			return fmt.Errorf("commit %x: %w", address, err)
		}
		keys := make([]common.Hash, 0, len(t.Storage))
		for k := range t.Storage {
			keys = append(keys, k)
		}
		sortHashes(keys)
		for i := range keys {
			if err := w.WriteAccountStorage(address, incarnation, &keys[i], nil, &t.Storage[keys[i]].PresentValue); err != nil {
				return fmt.Errorf("commit %x storage %x: %w", address, keys[i], err)
			}
		}
	}
	return nil
}

var _ StateReader = (*TransitionReader)(nil)

// TransitionReader presents the state as it will be once the transitions are committed on top of
// the underlying reader, without writing anything.
type TransitionReader struct {
	transitions TransitionState
	r           StateReader
}

func NewTransitionReader(transitions TransitionState, r StateReader) *TransitionReader {
	return &TransitionReader{transitions: transitions, r: r}
}

func (tr *TransitionReader) ReadAccountData(address common.Address) (*accounts.Account, error) {
	t, ok := tr.transitions[address]
	if !ok {
		return tr.r.ReadAccountData(address)
	}
	if t.Info == nil {
		return nil, nil
	}
	incarnation, err := t.incarnation(address, tr.r)
	if err != nil {
		return nil, err
	}
	acc := t.Info.toAccount(incarnation)
	return &acc, nil
}

func (tr *TransitionReader) ReadAccountStorage(address common.Address, incarnation uint64, key *common.Hash) ([]byte, error) {
	if t, ok := tr.transitions[address]; ok {
		if slot, ok := t.Storage[*key]; ok {
			return slot.PresentValue.Bytes(), nil
		}
		if t.Info == nil || t.StorageWasDestroyed {
			return nil, nil
		}
	}
	return tr.r.ReadAccountStorage(address, incarnation, key)
}

func (tr *TransitionReader) ReadAccountCode(address common.Address, incarnation uint64, codeHash common.Hash) ([]byte, error) {
	if t, ok := tr.transitions[address]; ok && t.Info != nil && t.Info.Code != nil && t.Info.CodeHash == codeHash {
		return t.Info.Code, nil
	}
	return tr.r.ReadAccountCode(address, incarnation, codeHash)
}

func (tr *TransitionReader) ReadAccountCodeSize(address common.Address, incarnation uint64, codeHash common.Hash) (int, error) {
	code, err := tr.ReadAccountCode(address, incarnation, codeHash)
	if err != nil {
		return 0, err
	}
	return len(code), nil
}

func (tr *TransitionReader) ReadAccountIncarnation(address common.Address) (uint64, error) {
	if t, ok := tr.transitions[address]; ok && t.Info == nil {
		return t.incarnation(address, tr.r)
	}
	return tr.r.ReadAccountIncarnation(address)
}
