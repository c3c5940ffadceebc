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

package crypto

import (
	"hash"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// KeccakState wraps sha3.state. Read squeezes the sponge without copying the
// internal state, so the hasher must be reset before reuse.
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

type Hasher struct {
	Sha KeccakState
}

var hashersPool = sync.Pool{
	New: func() any {
		return &Hasher{Sha: sha3.NewLegacyKeccak256().(KeccakState)}
	},
}

func NewHasher() *Hasher {
	h := hashersPool.Get().(*Hasher)
	h.Sha.Reset()
	return h
}

func ReturnHasherToPool(h *Hasher) { hashersPool.Put(h) }

// Keccak256Hash calculates the Keccak256 hash of the concatenated input.
func Keccak256Hash(data ...[]byte) (out common.Hash) {
	h := NewHasher()
	defer ReturnHasherToPool(h)
	for _, b := range data {
		h.Sha.Write(b) //nolint:errcheck
	}
	h.Sha.Read(out[:]) //nolint:errcheck
	return out
}

func Keccak256(data ...[]byte) []byte {
	out := Keccak256Hash(data...)
	return out[:]
}

// EmptyCodeHash is the hash of empty code, shared by every account without a contract.
var EmptyCodeHash = Keccak256Hash(nil)
