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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/telosnetwork/tevm-erigon/core/types/accounts"
	"github.com/telosnetwork/tevm-erigon/db/kv"
	"github.com/telosnetwork/tevm-erigon/db/kv/dbutils"
)

var _ StateWriter = (*PlainStateWriter)(nil)

// PlainStateWriter writes state changes straight into the plain state tables of an open transaction.
type PlainStateWriter struct {
	db kv.Putter
}

func NewPlainStateWriter(db kv.Putter) *PlainStateWriter {
	return &PlainStateWriter{
		db: db,
	}
}

func (w *PlainStateWriter) UpdateAccountData(address common.Address, original, account *accounts.Account) error {
	return w.db.Put(kv.PlainState, address[:], account.EncodeForStorage())
}

func (w *PlainStateWriter) UpdateAccountCode(address common.Address, incarnation uint64, codeHash common.Hash, code []byte) error {
	if len(code) == 0 {
		return nil
	}
	return w.db.Put(kv.Code, codeHash[:], code)
}

// DeleteAccount removes the account and records the incarnation its successor must use,
// which hides the storage written under the deleted incarnation.
func (w *PlainStateWriter) DeleteAccount(address common.Address, original *accounts.Account) error {
	if err := w.db.Delete(kv.PlainState, address[:]); err != nil {
		return err
	}
	if original == nil {
		return nil
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], original.Incarnation+1)
	return w.db.Put(kv.IncarnationMap, address[:], b[:])
}

func (w *PlainStateWriter) WriteAccountStorage(address common.Address, incarnation uint64, key *common.Hash, original, value *uint256.Int) error {
	if original != nil && original.Eq(value) {
		return nil
	}
	compositeKey := dbutils.PlainGenerateCompositeStorageKey(address[:], incarnation, key[:])
	if value.IsZero() {
		return w.db.Delete(kv.PlainState, compositeKey)
	}
	return w.db.Put(kv.PlainState, compositeKey, value.Bytes())
}

func (w *PlainStateWriter) CreateContract(address common.Address) error {
	return w.db.Delete(kv.IncarnationMap, address[:])
}
