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

package statediff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/tevm-erigon/core/state"
)

type Mode uint8

const (
	// ModeFatal aborts the block on the first mismatch.
	ModeFatal Mode = iota
	// ModeCorrective takes the native value and carries on. Reverse-direction mismatches stay fatal.
	ModeCorrective
)

func (m Mode) String() string {
	switch m {
	case ModeFatal:
		return "fatal"
	case ModeCorrective:
		return "corrective"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal", "":
		return ModeFatal, nil
	case "corrective":
		return ModeCorrective, nil
	default:
		return ModeFatal, fmt.Errorf("unknown statediff mode %q, expected fatal or corrective", s)
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

type Outcome uint8

const (
	OutcomeConsistent Outcome = iota
	OutcomeCorrected
)

func (o Outcome) String() string {
	if o == OutcomeCorrected {
		return "corrected"
	}
	return "consistent"
}

// Result of a reconciliation that did not diverge. Override holds the native values for every
// corrected mismatch and is empty when the block was consistent; the caller applies it.
type Result struct {
	Outcome   Outcome
	Override  *state.StateOverride
	Corrected []Mismatch
}

type Comparator struct {
	Mode   Mode
	Logger log.Logger
}

func NewComparator(mode Mode, logger log.Logger) *Comparator {
	return &Comparator{Mode: mode, Logger: logger}
}

// Reconcile compares the block's local transitions against the native diff rows. reader sees the
// state before the block.
func Reconcile(reader state.StateReader, local state.TransitionState, accounts []AccountDiffRow, storage []StorageDiffRow,
	openWallet AddressSet, mode Mode, logger log.Logger) (*Result, error) {
	return NewComparator(mode, logger).Reconcile(reader, local, accounts, storage, openWallet)
}

type reconciliation struct {
	*Comparator
	local    state.TransitionState
	view     *state.TransitionReader
	override *state.StateOverride
	res      *Result
}

func (c *Comparator) Reconcile(reader state.StateReader, local state.TransitionState, accounts []AccountDiffRow, storage []StorageDiffRow,
	openWallet AddressSet) (*Result, error) {
	view := state.NewTransitionReader(local, reader)
	r := &reconciliation{
		Comparator: c,
		local:      local,
		view:       view,
		override:   state.NewStateOverride(view),
		res:        &Result{Outcome: OutcomeConsistent},
	}
	r.res.Override = r.override
	if c.Logger == nil {
		r.Comparator = &Comparator{Mode: c.Mode, Logger: log.Root()}
	}

	if err := r.reverse(accounts, storage); err != nil {
		return nil, r.diverged(err)
	}
	for i := range accounts {
		row := &accounts[i]
		if row.Removed || (openWallet.Contains(row.Address) && row.IsEmpty()) {
			continue
		}
		if err := r.account(row); err != nil {
			return nil, r.diverged(err)
		}
	}
	for i := range storage {
		if err := r.slot(&storage[i]); err != nil {
			return nil, r.diverged(err)
		}
	}

	if len(r.res.Corrected) > 0 {
		r.res.Outcome = OutcomeCorrected
		blocksCorrected.Inc()
	} else {
		blocksConsistent.Inc()
	}
	return r.res, nil
}

func (r *reconciliation) diverged(err error) error {
	r.override.Discard()
	blocksDiverged.Inc()
	return err
}

// mismatch either fails the block or records the correction queued by correct. A correction
// that cannot be staged fails the block with the mismatch it was meant to fix.
func (r *reconciliation) mismatch(m Mismatch, correct func() error) error {
	if r.Mode != ModeCorrective || m.Kind == MismatchReverse {
		return &ConsensusMismatchError{Mismatch: m}
	}
	if err := correct(); err != nil {
		if m.Err == nil {
			m.Err = err
		}
		return &ConsensusMismatchError{Mismatch: m}
	}
	r.Logger.Warn("Corrected state drift from native ledger", m.logCtx()...)
	correctedCounter(m.Kind).Inc()
	r.res.Corrected = append(r.res.Corrected, m)
	return nil
}

// reverse fails if the engine changed an account or slot the native ledger did not report.
// Removed and open-wallet rows count as reported.
func (r *reconciliation) reverse(accounts []AccountDiffRow, storage []StorageDiffRow) error {
	reported := make(AddressSet, len(accounts))
	for i := range accounts {
		reported.Add(accounts[i].Address)
	}
	reportedSlots := make(map[common.Address]map[common.Hash]struct{})
	for i := range storage {
		row := &storage[i]
		slots, ok := reportedSlots[row.Address]
		if !ok {
			slots = make(map[common.Hash]struct{})
			reportedSlots[row.Address] = slots
		}
		slots[row.SlotKey()] = struct{}{}
	}

	for _, address := range r.local.SortedAddresses() {
		t := r.local[address]
		if (t.InfoChanged() || t.StorageWasDestroyed) && !reported.Contains(address) {
			return r.mismatch(Mismatch{Kind: MismatchReverse, Address: address, Local: "changed", Native: "unreported"}, nil)
		}
		for _, key := range t.ChangedSlots() {
			if _, ok := reportedSlots[address][key]; !ok {
				return r.mismatch(Mismatch{
					Kind:    MismatchReverse,
					Address: address,
					Key:     &key,
					Local:   t.Storage[key].PresentValue.Dec(),
					Native:  "unreported",
				}, nil)
			}
		}
	}
	return nil
}

func (r *reconciliation) account(row *AccountDiffRow) error {
	address := row.Address
	restore := func() error {
		if err := r.override.OverrideBalance(address, row.balance()); err != nil {
			return err
		}
		if err := r.override.OverrideNonce(address, row.Nonce); err != nil {
			return err
		}
		return r.override.OverrideCode(address, row.Code)
	}

	if t, ok := r.local[address]; ok && (t.Info == nil || t.Status == state.Destroyed) && !row.IsEmpty() {
		return r.mismatch(Mismatch{Kind: MismatchDestroyed, Address: address, Local: t.Status.String(), Native: "live"}, restore)
	}

	acc, err := r.view.ReadAccountData(address)
	if err != nil {
		return fmt.Errorf("statediff: read account %x: %w", address, err)
	}
	if acc == nil {
		if row.IsEmpty() {
			return nil
		}
		return r.mismatch(Mismatch{Kind: MismatchMissingAccount, Address: address, Local: "absent", Native: row.balance().Dec()}, restore)
	}

	if !acc.Balance.Eq(row.balance()) {
		m := Mismatch{Kind: MismatchBalance, Address: address, Local: acc.Balance.Dec(), Native: row.balance().Dec()}
		if err := r.mismatch(m, func() error { return r.override.OverrideBalance(address, row.balance()) }); err != nil {
			return err
		}
	}
	if acc.Nonce != row.Nonce {
		m := Mismatch{Kind: MismatchNonce, Address: address, Local: strconv.FormatUint(acc.Nonce, 10), Native: strconv.FormatUint(row.Nonce, 10)}
		if err := r.mismatch(m, func() error { return r.override.OverrideNonce(address, row.Nonce) }); err != nil {
			return err
		}
	}
	codeSize, err := r.view.ReadAccountCodeSize(address, acc.Incarnation, acc.CodeHash)
	if err != nil {
		return fmt.Errorf("statediff: read code %x: %w", address, err)
	}
	if codeSize != len(row.Code) {
		m := Mismatch{Kind: MismatchCode, Address: address, Local: strconv.Itoa(codeSize), Native: strconv.Itoa(len(row.Code))}
		if err := r.mismatch(m, func() error { return r.override.OverrideCode(address, row.Code) }); err != nil {
			return err
		}
	}
	return nil
}

func (r *reconciliation) slot(row *StorageDiffRow) error {
	address, key, native := row.Address, row.SlotKey(), row.NativeValue()
	correct := func() error { return r.override.OverrideStorage(address, key, &native) }

	var local uint256.Int
	if s, ok := r.inBlockSlot(address, key); ok {
		local = s.PresentValue
	} else {
		enc, err := r.persistedSlot(address, key)
		if err != nil {
			return r.mismatch(Mismatch{Kind: MismatchStorageLookup, Address: address, Key: &key, Native: native.Dec(), Err: err}, correct)
		}
		local.SetBytes(enc)
	}
	if local.Eq(&native) {
		return nil
	}
	return r.mismatch(Mismatch{Kind: MismatchStorageValue, Address: address, Key: &key, Local: local.Dec(), Native: native.Dec()}, correct)
}

func (r *reconciliation) inBlockSlot(address common.Address, key common.Hash) (*state.StorageSlot, bool) {
	t, ok := r.local[address]
	if !ok {
		return nil, false
	}
	s, ok := t.Storage[key]
	return s, ok
}

// persistedSlot reads a slot the block did not touch. A destroyed storage reads as zero.
func (r *reconciliation) persistedSlot(address common.Address, key common.Hash) ([]byte, error) {
	acc, err := r.view.ReadAccountData(address)
	if err != nil {
		return nil, err
	}
	var incarnation uint64
	if acc != nil {
		incarnation = acc.Incarnation
	}
	return r.view.ReadAccountStorage(address, incarnation, &key)
}
