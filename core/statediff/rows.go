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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// AccountDiffRow is one change to the native `account` table. When Removed is set the row
// signals a deletion and its balance, nonce and code carry no meaning.
type AccountDiffRow struct {
	Removed bool           `json:"removed"`
	Address common.Address `json:"address"`
	Account string         `json:"account"`
	Nonce   uint64         `json:"nonce"`
	Code    hexutil.Bytes  `json:"code"`
	Balance *uint256.Int   `json:"balance"`
}

// IsEmpty reports a row describing an account with no balance, nonce or code.
func (r *AccountDiffRow) IsEmpty() bool {
	return r.Nonce == 0 && len(r.Code) == 0 && (r.Balance == nil || r.Balance.IsZero())
}

func (r *AccountDiffRow) balance() *uint256.Int {
	if r.Balance == nil {
		return new(uint256.Int)
	}
	return r.Balance
}

// StorageDiffRow is one change to the native `accountstate` table. A removed row means the slot is zero.
type StorageDiffRow struct {
	Removed bool           `json:"removed"`
	Address common.Address `json:"address"`
	Key     uint256.Int    `json:"key"`
	Value   uint256.Int    `json:"value"`
}

func (r *StorageDiffRow) SlotKey() common.Hash {
	return r.Key.Bytes32()
}

// NativeValue is the value the native ledger holds for the slot after the block.
func (r *StorageDiffRow) NativeValue() uint256.Int {
	if r.Removed {
		return uint256.Int{}
	}
	return r.Value
}

type AddressSet map[common.Address]struct{}

func NewAddressSet(addrs ...common.Address) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

func (s AddressSet) Add(a common.Address) { s[a] = struct{}{} }

func (s AddressSet) Contains(a common.Address) bool {
	_, ok := s[a]
	return ok
}
