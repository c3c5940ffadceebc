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
	"errors"
	"fmt"
	"math/big"

	gethrlp "github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	ErrParse            = errors.New("rlp parse")
	ErrUnexpectedList   = fmt.Errorf("%w: expected string, got list", ErrParse)
	ErrUnexpectedString = fmt.Errorf("%w: expected list, got string", ErrParse)
	ErrTrailingBytes    = fmt.Errorf("%w: trailing bytes after value", ErrParse)
)

// Prefix parses the item header at pos and returns the position and length of its payload.
// A single byte below 0x80 is its own payload.
func Prefix(payload []byte, pos int) (dataPos int, dataLen int, isList bool, err error) {
	if pos < 0 || pos >= len(payload) {
		return 0, 0, false, fmt.Errorf("%w: unexpected end of payload at %d", ErrParse, pos)
	}
	kind, content, rest, err := gethrlp.Split(payload[pos:])
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: at %d: %w", ErrParse, pos, err)
	}
	dataLen = len(content)
	dataPos = len(payload) - len(rest) - dataLen
	return dataPos, dataLen, kind == gethrlp.List, nil
}

func List(payload []byte, pos int) (dataPos, dataLen int, err error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if !isList {
		return 0, 0, fmt.Errorf("%w: at %d", ErrUnexpectedString, pos)
	}
	return dataPos, dataLen, nil
}

func String(payload []byte, pos int) (dataPos, dataLen int, err error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if isList {
		return 0, 0, fmt.Errorf("%w: at %d", ErrUnexpectedList, pos)
	}
	return dataPos, dataLen, nil
}

func StringOfLen(payload []byte, pos, expectedLen int) (int, error) {
	dataPos, dataLen, err := String(payload, pos)
	if err != nil {
		return 0, err
	}
	if dataLen != expectedLen {
		return 0, fmt.Errorf("%w: expected string of len %d, got %d", ErrParse, expectedLen, dataLen)
	}
	return dataPos, nil
}

// Bytes returns a copy of the string payload at pos.
func Bytes(payload []byte, pos int) (int, []byte, error) {
	dataPos, dataLen, err := String(payload, pos)
	if err != nil {
		return 0, nil, err
	}
	return dataPos + dataLen, append([]byte{}, payload[dataPos:dataPos+dataLen]...), nil
}

// Fixed reads a string of exactly len(buf) bytes into buf.
func Fixed(payload []byte, pos int, buf []byte) (int, error) {
	dataPos, err := StringOfLen(payload, pos, len(buf))
	if err != nil {
		return 0, err
	}
	copy(buf, payload[dataPos:dataPos+len(buf)])
	return dataPos + len(buf), nil
}

// ParseHash extracts the next 32-byte hash into hashbuf.
func ParseHash(payload []byte, pos int, hashbuf []byte) (int, error) {
	return Fixed(payload, pos, hashbuf[:32])
}

func integer(payload []byte, pos, maxLen int) (dataPos, dataLen int, err error) {
	dataPos, dataLen, err = String(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if dataLen > maxLen {
		return 0, 0, fmt.Errorf("%w: integer of %d bytes exceeds %d", ErrParse, dataLen, maxLen)
	}
	if dataLen > 0 && payload[dataPos] == 0 {
		return 0, 0, fmt.Errorf("%w: at %d: %w", ErrParse, pos, gethrlp.ErrCanonInt)
	}
	return dataPos, dataLen, nil
}

func U64(payload []byte, pos int) (int, uint64, error) {
	dataPos, dataLen, err := integer(payload, pos, 8)
	if err != nil {
		return 0, 0, err
	}
	var r uint64
	for _, b := range payload[dataPos : dataPos+dataLen] {
		r = (r << 8) | uint64(b)
	}
	return dataPos + dataLen, r, nil
}

func U256(payload []byte, pos int, x *uint256.Int) (int, error) {
	dataPos, dataLen, err := integer(payload, pos, 32)
	if err != nil {
		return 0, err
	}
	x.SetBytes(payload[dataPos : dataPos+dataLen])
	return dataPos + dataLen, nil
}

func BigInt(payload []byte, pos int) (int, *big.Int, error) {
	dataPos, dataLen, err := integer(payload, pos, 32)
	if err != nil {
		return 0, nil, err
	}
	return dataPos + dataLen, new(big.Int).SetBytes(payload[dataPos : dataPos+dataLen]), nil
}

// IsEmptyString and IsEmptyList report whether the item at pos is the corresponding absent marker.
func IsEmptyString(payload []byte, pos int) bool {
	return pos < len(payload) && payload[pos] == EmptyString[0]
}

func IsEmptyList(payload []byte, pos int) bool {
	return pos < len(payload) && payload[pos] == EmptyList[0]
}
