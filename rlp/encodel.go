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

package rlp

import (
	"io"

	"github.com/ethereum/go-ethereum/common"
	gethrlp "github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// General design:
//     - the wire format itself (prefixes, canonical size checks, writer buffering) is go-ethereum's rlp
//     - this package adds typed helpers on top of it: Encode* write into an EncoderBuffer,
//       Parse functions accept position in payload and return new position
//     - the empty string (0x80) and empty list (0xC0) double as "absent" markers in optional chains

type (
	EncoderBuffer = gethrlp.EncoderBuffer
	Stream        = gethrlp.Stream
	Encoder       = gethrlp.Encoder
	Decoder       = gethrlp.Decoder
)

var (
	EmptyString = gethrlp.EmptyString
	EmptyList   = gethrlp.EmptyList
)

func NewEncoderBuffer(dst io.Writer) EncoderBuffer {
	return gethrlp.NewEncoderBuffer(dst)
}

func EncodeToBytes(val interface{}) ([]byte, error) { return gethrlp.EncodeToBytes(val) }

func DecodeBytes(b []byte, val interface{}) error { return gethrlp.DecodeBytes(b, val) }

// EncodeU256 writes v as a big-endian integer without leading zeros.
func EncodeU256(w EncoderBuffer, v *uint256.Int) {
	w.WriteBytes(v.Bytes())
}

func EncodeHash(w EncoderBuffer, h common.Hash) {
	w.WriteBytes(h[:])
}

// EncodeEmptyString and EncodeEmptyList write the absent markers.
func EncodeEmptyString(w EncoderBuffer) { w.Write(EmptyString) } //nolint:errcheck
func EncodeEmptyList(w EncoderBuffer)   { w.Write(EmptyList) }   //nolint:errcheck
