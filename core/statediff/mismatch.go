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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var ErrConsensusMismatch = errors.New("consensus mismatch")

type MismatchKind uint8

const (
	MismatchMissingAccount MismatchKind = iota + 1
	MismatchBalance
	MismatchNonce
	MismatchCode
	MismatchDestroyed
	MismatchStorageValue
	MismatchStorageLookup
	MismatchReverse
)

var mismatchKindNames = map[MismatchKind]string{
	MismatchMissingAccount: "missing-account",
	MismatchBalance:        "balance",
	MismatchNonce:          "nonce",
	MismatchCode:           "code-existence",
	MismatchDestroyed:      "destroyed-divergence",
	MismatchStorageValue:   "storage-value",
	MismatchStorageLookup:  "storage-lookup-failure",
	MismatchReverse:        "reverse-direction",
}

func (k MismatchKind) String() string {
	if s, ok := mismatchKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("MismatchKind(%d)", uint8(k))
}

// Mismatch is one disagreement between the local transition set and the native rows.
// Key is nil for account level mismatches.
type Mismatch struct {
	Kind    MismatchKind
	Address common.Address
	Key     *common.Hash
	Local   string
	Native  string
	Err     error
}

func (m *Mismatch) String() string {
	where := fmt.Sprintf("%x", m.Address)
	if m.Key != nil {
		where += fmt.Sprintf(" key %x", *m.Key)
	}
	s := fmt.Sprintf("%s at %s", m.Kind, where)
	if m.Local != "" || m.Native != "" {
		s += fmt.Sprintf(": local=%s native=%s", m.Local, m.Native)
	}
	if m.Err != nil {
		s += ": " + m.Err.Error()
	}
	return s
}

func (m *Mismatch) logCtx() []any {
	ctx := []any{"kind", m.Kind, "address", m.Address}
	if m.Key != nil {
		ctx = append(ctx, "key", *m.Key)
	}
	ctx = append(ctx, "local", m.Local, "native", m.Native)
	if m.Err != nil {
		ctx = append(ctx, "err", m.Err)
	}
	return ctx
}

// ConsensusMismatchError halts the block: the two ledgers diverged.
type ConsensusMismatchError struct {
	Mismatch
}

func (e *ConsensusMismatchError) Error() string {
	return "consensus mismatch: " + e.Mismatch.String()
}

func (e *ConsensusMismatchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConsensusMismatch, e.Err}
	}
	return []error{ErrConsensusMismatch}
}
