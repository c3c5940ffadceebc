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
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/tevm-erigon/rlp"
)

func TestHeaderHashEncodingRoundTrip(t *testing.T) {
	tr := NewTRand()
	for optional := 0; optional < 1<<len(headerOptionalSlots); optional++ {
		t.Run(fmt.Sprintf("optional=%06b", optional), func(t *testing.T) {
			h := tr.RandHeader(optional)
			enc := h.EncodeHashRLP()

			dec, err := DecodeHeaderRLP(enc)
			require.NoError(t, err)
			compareConsensusFields(t, h, dec)
			require.Equal(t, BlockExtension{}, dec.Extension)
			require.Equal(t, enc, dec.EncodeHashRLP())
			require.Equal(t, h.Hash(), dec.Hash())

			var viaStream Header
			require.NoError(t, rlp.DecodeBytes(enc, &viaStream))
			compareConsensusFields(t, h, &viaStream)
		})
	}
}

func TestHeaderPlaceholders(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(1 << 5) // only RequestsHash
	enc := h.EncodeHashRLP()

	// BaseFee, WithdrawalsHash, BlobGasUsed, ExcessBlobGas, ParentBeaconBlockRoot placeholders
	tail := enc[len(enc)-33-5:]
	require.Equal(t, []byte{0xc0, 0x80, 0xc0, 0xc0, 0x80}, tail[:5])
	require.Equal(t, byte(0xa0), tail[5])
	require.Equal(t, h.RequestsHash[:], tail[6:])

	// nothing follows the last present field
	h = tr.RandHeader(1 << 0)
	withoutBaseFee := h.Copy()
	withoutBaseFee.BaseFee = nil
	baseFee, err := rlp.EncodeToBytes(h.BaseFee)
	require.NoError(t, err)
	require.Equal(t, len(withoutBaseFee.EncodeHashRLP())+len(baseFee), len(h.EncodeHashRLP()))
}

func TestHeaderDecodeRequestsRootIndependently(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(1<<4 | 1<<5)
	require.NotEqual(t, *h.ParentBeaconBlockRoot, *h.RequestsHash)

	dec, err := DecodeHeaderRLP(h.EncodeHashRLP())
	require.NoError(t, err)
	require.Equal(t, *h.ParentBeaconBlockRoot, *dec.ParentBeaconBlockRoot)
	require.Equal(t, *h.RequestsHash, *dec.RequestsHash)
}

func TestHeaderHashExcludesExtension(t *testing.T) {
	tr := NewTRand()
	for i := 0; i < RUNS; i++ {
		h := tr.RandHeader(tr.RandIntInRange(0, 64))
		other := h.Copy()
		other.Extension = tr.RandExtension()
		other.Extension.StartingRevisionNumber = h.Extension.StartingRevisionNumber + 1
		require.Equal(t, h.Hash(), other.Hash())
		require.Equal(t, h.EncodeHashRLP(), other.EncodeHashRLP())
	}
}

func TestHeaderDecodeLengthMismatch(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(1<<len(headerOptionalSlots) - 1)

	var b bytes.Buffer
	w := rlp.NewEncoderBuffer(&b)
	l := w.List()
	h.encodeConsensusFields(w)
	encodeSlots(w, h, headerOptionalSlots)
	w.WriteUint64(7) // unknown trailing field
	w.ListEnd(l)
	require.NoError(t, w.Flush())

	_, err := DecodeHeaderRLP(b.Bytes())
	require.ErrorIs(t, err, ErrListLengthMismatch)
	var mismatch *ListLengthMismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Equal(t, 1, mismatch.Declared-mismatch.Consumed)
}

func TestHeaderDecodeErrors(t *testing.T) {
	_, err := DecodeHeaderRLP([]byte{0x80})
	require.ErrorIs(t, err, ErrUnexpectedString)

	tr := NewTRand()
	enc := tr.RandHeader(0).EncodeHashRLP()
	_, err = DecodeHeaderRLP(enc[:len(enc)-1])
	require.ErrorIs(t, err, rlp.ErrParse)

	_, err = DecodeHeaderRLP(append(enc, 0x01))
	require.ErrorIs(t, err, rlp.ErrTrailingBytes)
}

func TestMainnetGenesisHash(t *testing.T) {
	h := &Header{
		UncleHash:   EmptyUncleHash,
		Root:        common.HexToHash("d7f8974fb5ac78d9ac099b9ad5018bedc2ce0a72dad1827a1709da30580f0544"),
		TxHash:      EmptyRootHash,
		ReceiptHash: EmptyRootHash,
		Difficulty:  big.NewInt(17179869184),
		Number:      big.NewInt(0),
		GasLimit:    5000,
		Extra:       hexutil.MustDecode("0x11bbe8db4e347b4e8c937c1c8370e4b5ed33adb3db69cbdb7a38e1e50b1b82fa"),
		Nonce:       EncodeNonce(66),
	}
	require.Equal(t, common.HexToHash("d4e56740f876aef8c010b86a40d5f56745a118d0906a34e69aec8c0db1cb8fa3"), h.Hash())
	require.True(t, h.IsEmpty())
}

func TestHeaderHelpers(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(0)
	h.Number = big.NewInt(10)
	require.Equal(t, BlockNumHash{Number: 9, Hash: h.ParentHash}, h.ParentNumHash())
	h.Number = big.NewInt(0)
	require.Equal(t, uint64(0), h.ParentNumHash().Number)

	h.TxHash, h.UncleHash = EmptyRootHash, EmptyUncleHash
	require.True(t, h.IsEmpty())
	w := tr.RandHash()
	h.WithdrawalsHash = &w
	require.False(t, h.IsEmpty())

	h.Extension.GasPriceChange = &GasPriceChange{Height: 0}
	require.ErrorIs(t, h.SanityCheck(), ErrHeaderSanity)
	h.Extension.GasPriceChange.Height = 3
	require.NoError(t, h.SanityCheck())

	cpy := h.Copy()
	cpy.Extension.GasPriceChange.Height = 4
	cpy.Extra[0]++
	require.Equal(t, uint64(3), h.Extension.GasPriceChange.Height)
	require.NotEqual(t, h.Extra[0], cpy.Extra[0])
}

func TestNewHeaderWithExtension(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(1)
	parent := BlockExtension{StartingRevisionNumber: 2}
	parent.StartingGasPrice.SetUint64(100)
	parent.GasPriceChange = &GasPriceChange{Height: 5}
	parent.GasPriceChange.Price.SetUint64(120)

	child := NewHeaderWithExtension(h, &parent, nil, &RevisionChange{Height: 0, Revision: 3})
	require.Equal(t, uint64(120), child.Extension.StartingGasPrice.Uint64())
	require.Equal(t, uint64(3), child.Extension.StartingRevisionNumber)
	require.Nil(t, child.Extension.GasPriceChange)
	require.Nil(t, child.Extension.RevisionChange)
	require.Equal(t, h.Hash(), child.Hash())
}
