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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/tevm-erigon/rlp"
)

func TestHeaderStorageRoundTrip(t *testing.T) {
	tr := NewTRand()
	for optional := 0; optional < 1<<len(headerOptionalSlots); optional++ {
		t.Run(fmt.Sprintf("optional=%06b", optional), func(t *testing.T) {
			h := tr.RandHeader(optional)
			enc := h.EncodeForStorage()
			require.Equal(t, HeaderStorageVersion, enc[0])

			dec, err := DecodeHeaderForStorage(enc)
			require.NoError(t, err)
			compareConsensusFields(t, h, dec)
			require.Equal(t, h.Extension, dec.Extension)
			require.Equal(t, h.Hash(), dec.Hash())
			require.Equal(t, enc, dec.EncodeForStorage())
		})
	}
}

func TestHeaderStorageExtensionVariants(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(0)
	for _, ext := range []BlockExtension{
		{},
		{StartingRevisionNumber: 4},
		{GasPriceChange: &GasPriceChange{Height: 1}},
		{RevisionChange: &RevisionChange{Height: 9, Revision: 2}},
		tr.RandExtension(),
	} {
		h.Extension = ext
		dec, err := DecodeHeaderForStorage(h.EncodeForStorage())
		require.NoError(t, err)
		require.Equal(t, ext, dec.Extension)
	}
}

// records written before the extra fields existed end right after the optional consensus fields
func encodeWithoutExtraFields(h *Header) []byte {
	var b bytes.Buffer
	b.WriteByte(HeaderStorageVersion)
	w := rlp.NewEncoderBuffer(&b)
	l := w.List()
	h.encodeConsensusFields(w)
	for i := range storageOptionalSlots {
		if storageOptionalSlots[i].present(h) {
			storageOptionalSlots[i].encode(w, h)
		} else {
			storageOptionalSlots[i].encodePlaceholder(w)
		}
	}
	w.ListEnd(l)
	if err := w.Flush(); err != nil {
		panic(err)
	}
	return b.Bytes()
}

func TestHeaderStorageWithoutExtraFields(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(1<<0 | 1<<4)
	h.RequestsHash = nil

	dec, err := DecodeHeaderForStorage(encodeWithoutExtraFields(h))
	require.NoError(t, err)
	compareConsensusFields(t, h, dec)
	require.Equal(t, BlockExtension{}, dec.Extension)
	require.Nil(t, dec.RequestsHash)
}

func TestHeaderStorageIgnoresNewerExtraFields(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(1 << 5)

	var b bytes.Buffer
	b.WriteByte(HeaderStorageVersion)
	w := rlp.NewEncoderBuffer(&b)
	l := w.List()
	h.encodeConsensusFields(w)
	for i := range storageOptionalSlots {
		storageOptionalSlots[i].encodePlaceholder(w)
	}
	extra := w.List()
	rlp.EncodeHash(w, *h.RequestsHash)
	encodeExtension(w, &h.Extension)
	w.WriteBytes([]byte("field from the future"))
	w.ListEnd(extra)
	w.ListEnd(l)
	require.NoError(t, w.Flush())

	dec, err := DecodeHeaderForStorage(b.Bytes())
	require.NoError(t, err)
	require.Equal(t, *h.RequestsHash, *dec.RequestsHash)
	require.Equal(t, h.Extension, dec.Extension)
}

func TestHeaderStorageVersion(t *testing.T) {
	tr := NewTRand()
	enc := tr.RandHeader(0).EncodeForStorage()
	enc[0] = 2
	_, err := DecodeHeaderForStorage(enc)
	require.ErrorIs(t, err, ErrUnknownStorageVersion)

	_, err = DecodeHeaderForStorage(nil)
	require.ErrorIs(t, err, ErrUnknownStorageVersion)
}

func TestHeaderStorageCorruptExtension(t *testing.T) {
	tr := NewTRand()
	h := tr.RandHeader(0)
	h.Extension = BlockExtension{GasPriceChange: &GasPriceChange{Height: 3}}
	enc := h.EncodeForStorage()
	// [height=3, price=0] -> [height=3, price=0x7f]: still valid
	require.Equal(t, []byte{0xc2, 0x03, 0x80, 0xc0}, enc[len(enc)-4:])
	enc[len(enc)-2] = 0x7f
	dec, err := DecodeHeaderForStorage(enc)
	require.NoError(t, err)
	require.Equal(t, uint64(0x7f), dec.Extension.GasPriceChange.Price.Uint64())

	// a non-canonical integer must be rejected
	enc[len(enc)-2] = 0x00
	_, err = DecodeHeaderForStorage(enc)
	require.ErrorIs(t, err, rlp.ErrParse)
}
