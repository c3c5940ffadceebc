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

package accounts

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/telosnetwork/tevm-erigon/crypto"
	"github.com/telosnetwork/tevm-erigon/rlp"
)

// Account is the plain-state representation of an account.
// Storage lives under the account's incarnation, so a recreated contract starts from empty storage.
type Account struct {
	Nonce       uint64
	Balance     uint256.Int
	CodeHash    common.Hash
	Incarnation uint64
}

// NewAccount creates a new account with the empty code hash.
func NewAccount() Account {
	return Account{CodeHash: crypto.EmptyCodeHash}
}

func (a *Account) IsEmptyCodeHash() bool {
	return a.CodeHash == crypto.EmptyCodeHash || a.CodeHash == (common.Hash{})
}

// IsEmpty reports an account with zero balance, zero nonce and no code.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && a.IsEmptyCodeHash()
}

func (a *Account) Copy(src *Account) {
	*a = *src
}

// EncodeForStorage returns the stored form of the account:
//
//	empty account           -> []
//	no code, incarnation 0  -> [nonce, balance]
//	otherwise               -> [nonce, balance, codeHash, incarnation]
func (a *Account) EncodeForStorage() []byte {
	var b bytes.Buffer
	w := rlp.NewEncoderBuffer(&b)
	l := w.List()
	if !a.IsEmpty() || a.Incarnation > 0 {
		w.WriteUint64(a.Nonce)
		rlp.EncodeU256(w, &a.Balance)
		if !a.IsEmptyCodeHash() || a.Incarnation > 0 {
			codeHash := a.CodeHash
			if codeHash == (common.Hash{}) {
				codeHash = crypto.EmptyCodeHash
			}
			rlp.EncodeHash(w, codeHash)
			w.WriteUint64(a.Incarnation)
		}
	}
	w.ListEnd(l)
	if err := w.Flush(); err != nil {
		panic(err) // bytes.Buffer never fails
	}
	return b.Bytes()
}

func (a *Account) DecodeForStorage(enc []byte) error {
	*a = NewAccount()
	if len(enc) == 0 {
		return nil
	}
	dataPos, dataLen, err := rlp.List(enc, 0)
	if err != nil {
		return fmt.Errorf("decode account: %w", err)
	}
	end := dataPos + dataLen
	if end != len(enc) {
		return fmt.Errorf("decode account: %w", rlp.ErrTrailingBytes)
	}
	pos := dataPos
	if pos == end {
		return nil
	}
	if pos, a.Nonce, err = rlp.U64(enc, pos); err != nil {
		return fmt.Errorf("decode account nonce: %w", err)
	}
	if pos, err = rlp.U256(enc, pos, &a.Balance); err != nil {
		return fmt.Errorf("decode account balance: %w", err)
	}
	if pos == end {
		return nil
	}
	if pos, err = rlp.ParseHash(enc, pos, a.CodeHash[:]); err != nil {
		return fmt.Errorf("decode account code hash: %w", err)
	}
	if pos, a.Incarnation, err = rlp.U64(enc, pos); err != nil {
		return fmt.Errorf("decode account incarnation: %w", err)
	}
	if pos != end {
		return fmt.Errorf("decode account: %d unexpected bytes", end-pos)
	}
	return nil
}

// Decode returns nil for an empty record.
func Decode(enc []byte) (*Account, error) {
	if len(enc) == 0 {
		return nil, nil
	}
	a := new(Account)
	if err := a.DecodeForStorage(enc); err != nil {
		return nil, err
	}
	return a, nil
}
