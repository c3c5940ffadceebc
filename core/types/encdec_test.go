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

package types

import (
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

const RUNS = 100

type TRand struct {
	rnd *rand.Rand
}

func NewTRand() *TRand {
	seed := time.Now().UnixNano()
	src := rand.NewSource(seed)
	return &TRand{rnd: rand.New(src)}
}

func (tr *TRand) RandIntInRange(min, max int) int {
	return (tr.rnd.Intn(max-min) + min)
}

func (tr *TRand) RandUint64() *uint64 {
	a := tr.rnd.Uint64()
	return &a
}

func (tr *TRand) RandBig() *big.Int {
	return big.NewInt(int64(tr.rnd.Int()))
}

func (tr *TRand) RandU256() uint256.Int {
	var u uint256.Int
	u.SetBytes(tr.RandBytes(tr.RandIntInRange(0, 33)))
	return u
}

func (tr *TRand) RandBytes(size int) []byte {
	arr := make([]byte, size)
	for i := 0; i < size; i++ {
		arr[i] = byte(tr.rnd.Intn(256))
	}
	return arr
}

func (tr *TRand) RandAddress() common.Address {
	return common.Address(tr.RandBytes(20))
}

func (tr *TRand) RandHash() common.Hash {
	return common.Hash(tr.RandBytes(32))
}

func (tr *TRand) RandBloom() Bloom {
	return Bloom(tr.RandBytes(BloomByteLength))
}

func (tr *TRand) RandExtension() BlockExtension {
	ext := BlockExtension{
		StartingGasPrice:       tr.RandU256(),
		StartingRevisionNumber: tr.rnd.Uint64(),
	}
	if tr.rnd.Intn(2) == 0 {
		ext.GasPriceChange = &GasPriceChange{Height: uint64(tr.RandIntInRange(1, 500)), Price: tr.RandU256()}
	}
	if tr.rnd.Intn(2) == 0 {
		ext.RevisionChange = &RevisionChange{Height: uint64(tr.RandIntInRange(1, 500)), Revision: tr.rnd.Uint64()}
	}
	return ext
}

// RandHeader returns a header with the optional fields selected by the low six bits of optional,
// in slot order.
func (tr *TRand) RandHeader(optional int) *Header {
	h := &Header{
		ParentHash:  tr.RandHash(),                              // common.Hash
		UncleHash:   tr.RandHash(),                              // common.Hash
		Coinbase:    tr.RandAddress(),                           // common.Address
		Root:        tr.RandHash(),                              // common.Hash
		TxHash:      tr.RandHash(),                              // common.Hash
		ReceiptHash: tr.RandHash(),                              // common.Hash
		Bloom:       tr.RandBloom(),                             // Bloom
		Difficulty:  tr.RandBig(),                               // *big.Int
		Number:      tr.RandBig(),                               // *big.Int
		GasLimit:    *tr.RandUint64(),                           // uint64
		GasUsed:     *tr.RandUint64(),                           // uint64
		Time:        *tr.RandUint64(),                           // uint64
		Extra:       tr.RandBytes(tr.RandIntInRange(128, 1024)), // []byte
		MixDigest:   tr.RandHash(),                              // common.Hash
		Nonce:       BlockNonce(tr.RandBytes(8)),                // BlockNonce
		Extension:   tr.RandExtension(),
	}
	if optional&(1<<0) != 0 {
		h.BaseFee = tr.RandBig()
	}
	if optional&(1<<1) != 0 {
		v := tr.RandHash()
		h.WithdrawalsHash = &v
	}
	if optional&(1<<2) != 0 {
		h.BlobGasUsed = tr.RandUint64()
	}
	if optional&(1<<3) != 0 {
		h.ExcessBlobGas = tr.RandUint64()
	}
	if optional&(1<<4) != 0 {
		v := tr.RandHash()
		h.ParentBeaconBlockRoot = &v
	}
	if optional&(1<<5) != 0 {
		v := tr.RandHash()
		h.RequestsHash = &v
	}
	return h
}

func checkBig(t *testing.T, name string, a, b *big.Int) {
	t.Helper()
	if a == nil || b == nil {
		require.True(t, a == nil && b == nil, "%s: nil mismatch %v vs %v", name, a, b)
		return
	}
	require.Zero(t, a.Cmp(b), "%s: %v vs %v", name, a, b)
}

// compareConsensusFields compares everything except the extension.
func compareConsensusFields(t *testing.T, a, b *Header) {
	t.Helper()
	require.Equal(t, a.ParentHash, b.ParentHash)
	require.Equal(t, a.UncleHash, b.UncleHash)
	require.Equal(t, a.Coinbase, b.Coinbase)
	require.Equal(t, a.Root, b.Root)
	require.Equal(t, a.TxHash, b.TxHash)
	require.Equal(t, a.ReceiptHash, b.ReceiptHash)
	require.Equal(t, a.Bloom, b.Bloom)
	checkBig(t, "Difficulty", a.Difficulty, b.Difficulty)
	checkBig(t, "Number", a.Number, b.Number)
	require.Equal(t, a.GasLimit, b.GasLimit)
	require.Equal(t, a.GasUsed, b.GasUsed)
	require.Equal(t, a.Time, b.Time)
	require.Equal(t, a.Extra, b.Extra)
	require.Equal(t, a.MixDigest, b.MixDigest)
	require.Equal(t, a.Nonce, b.Nonce)
	checkBig(t, "BaseFee", a.BaseFee, b.BaseFee)
	require.Equal(t, a.WithdrawalsHash, b.WithdrawalsHash)
	require.Equal(t, a.BlobGasUsed, b.BlobGasUsed)
	require.Equal(t, a.ExcessBlobGas, b.ExcessBlobGas)
	require.Equal(t, a.ParentBeaconBlockRoot, b.ParentBeaconBlockRoot)
	require.Equal(t, a.RequestsHash, b.RequestsHash)
}
