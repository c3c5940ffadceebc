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
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/telosnetwork/tevm-erigon/rlp"
)

var (
	ErrListLengthMismatch = errors.New("rlp: list length mismatch")
	ErrUnexpectedString   = rlp.ErrUnexpectedString
)

// ListLengthMismatchError reports a list whose items did not consume exactly the declared payload.
type ListLengthMismatchError struct {
	Declared int
	Consumed int
}

func (e *ListLengthMismatchError) Error() string {
	return fmt.Sprintf("%s: declared %d bytes, consumed %d", ErrListLengthMismatch, e.Declared, e.Consumed)
}

func (e *ListLengthMismatchError) Unwrap() error { return ErrListLengthMismatch }

// headerSlot is one entry of the chain of optional trailing header fields.
// A slot is written when it is present or when any later slot is present;
// in the latter case its placeholder keeps the positions of later slots.
type headerSlot struct {
	name     string
	hashLike bool // placeholder is the empty string, otherwise the empty list
	present  func(h *Header) bool
	encode   func(w rlp.EncoderBuffer, h *Header)
	decode   func(payload []byte, pos int, h *Header) (int, error)
}

func (s *headerSlot) encodePlaceholder(w rlp.EncoderBuffer) {
	if s.hashLike {
		rlp.EncodeEmptyString(w)
	} else {
		rlp.EncodeEmptyList(w)
	}
}

func (s *headerSlot) isPlaceholder(payload []byte, pos int) bool {
	if s.hashLike {
		return rlp.IsEmptyString(payload, pos)
	}
	return rlp.IsEmptyList(payload, pos)
}

func bigSlot(name string, field func(h *Header) **big.Int) headerSlot {
	return headerSlot{
		name:    name,
		present: func(h *Header) bool { return *field(h) != nil },
		encode:  func(w rlp.EncoderBuffer, h *Header) { w.WriteBigInt(*field(h)) },
		decode: func(payload []byte, pos int, h *Header) (int, error) {
			pos, v, err := rlp.BigInt(payload, pos)
			if err != nil {
				return 0, err
			}
			*field(h) = v
			return pos, nil
		},
	}
}

func u64Slot(name string, field func(h *Header) **uint64) headerSlot {
	return headerSlot{
		name:    name,
		present: func(h *Header) bool { return *field(h) != nil },
		encode:  func(w rlp.EncoderBuffer, h *Header) { w.WriteUint64(**field(h)) },
		decode: func(payload []byte, pos int, h *Header) (int, error) {
			pos, v, err := rlp.U64(payload, pos)
			if err != nil {
				return 0, err
			}
			*field(h) = &v
			return pos, nil
		},
	}
}

func hashSlot(name string, field func(h *Header) **common.Hash) headerSlot {
	return headerSlot{
		name:     name,
		hashLike: true,
		present:  func(h *Header) bool { return *field(h) != nil },
		encode:   func(w rlp.EncoderBuffer, h *Header) { rlp.EncodeHash(w, **field(h)) },
		decode: func(payload []byte, pos int, h *Header) (int, error) {
			var v common.Hash
			pos, err := rlp.ParseHash(payload, pos, v[:])
			if err != nil {
				return 0, err
			}
			*field(h) = &v
			return pos, nil
		},
	}
}

// headerOptionalSlots lists the optional trailing fields in fork order.
// New fields are appended here.
var headerOptionalSlots = []headerSlot{
	bigSlot("BaseFee", func(h *Header) **big.Int { return &h.BaseFee }),
	hashSlot("WithdrawalsHash", func(h *Header) **common.Hash { return &h.WithdrawalsHash }),
	u64Slot("BlobGasUsed", func(h *Header) **uint64 { return &h.BlobGasUsed }),
	u64Slot("ExcessBlobGas", func(h *Header) **uint64 { return &h.ExcessBlobGas }),
	hashSlot("ParentBeaconBlockRoot", func(h *Header) **common.Hash { return &h.ParentBeaconBlockRoot }),
	hashSlot("RequestsHash", func(h *Header) **common.Hash { return &h.RequestsHash }),
}

// storageOptionalSlots excludes RequestsHash: the storage encoding keeps it in the extra fields.
var storageOptionalSlots = headerOptionalSlots[:5]

func encodeSlots(w rlp.EncoderBuffer, h *Header, slots []headerSlot) {
	last := -1
	for i := range slots {
		if slots[i].present(h) {
			last = i
		}
	}
	for i := 0; i <= last; i++ {
		if slots[i].present(h) {
			slots[i].encode(w, h)
		} else {
			slots[i].encodePlaceholder(w)
		}
	}
}

// decodeSlots consumes slots while payload bytes remain. payload must end at the end of the enclosing list.
func decodeSlots(payload []byte, pos int, h *Header, slots []headerSlot) (int, error) {
	var err error
	for i := range slots {
		if pos >= len(payload) {
			break
		}
		if slots[i].isPlaceholder(payload, pos) {
			pos++
			continue
		}
		if pos, err = slots[i].decode(payload, pos, h); err != nil {
			return 0, fmt.Errorf("read %s: %w", slots[i].name, err)
		}
	}
	return pos, nil
}

func bigOrZero(b *big.Int) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return b
}

func (h *Header) encodeConsensusFields(w rlp.EncoderBuffer) {
	rlp.EncodeHash(w, h.ParentHash)
	rlp.EncodeHash(w, h.UncleHash)
	w.WriteBytes(h.Coinbase[:])
	rlp.EncodeHash(w, h.Root)
	rlp.EncodeHash(w, h.TxHash)
	rlp.EncodeHash(w, h.ReceiptHash)
	w.WriteBytes(h.Bloom[:])
	w.WriteBigInt(bigOrZero(h.Difficulty))
	w.WriteBigInt(bigOrZero(h.Number))
	w.WriteUint64(h.GasLimit)
	w.WriteUint64(h.GasUsed)
	w.WriteUint64(h.Time)
	w.WriteBytes(h.Extra)
	rlp.EncodeHash(w, h.MixDigest)
	w.WriteBytes(h.Nonce[:])
}

func (h *Header) decodeConsensusFields(payload []byte, pos int) (int, error) {
	var err error
	if pos, err = rlp.ParseHash(payload, pos, h.ParentHash[:]); err != nil {
		return 0, fmt.Errorf("read ParentHash: %w", err)
	}
	if pos, err = rlp.ParseHash(payload, pos, h.UncleHash[:]); err != nil {
		return 0, fmt.Errorf("read UncleHash: %w", err)
	}
	if pos, err = rlp.Fixed(payload, pos, h.Coinbase[:]); err != nil {
		return 0, fmt.Errorf("read Coinbase: %w", err)
	}
	if pos, err = rlp.ParseHash(payload, pos, h.Root[:]); err != nil {
		return 0, fmt.Errorf("read Root: %w", err)
	}
	if pos, err = rlp.ParseHash(payload, pos, h.TxHash[:]); err != nil {
		return 0, fmt.Errorf("read TxHash: %w", err)
	}
	if pos, err = rlp.ParseHash(payload, pos, h.ReceiptHash[:]); err != nil {
		return 0, fmt.Errorf("read ReceiptHash: %w", err)
	}
	if pos, err = rlp.Fixed(payload, pos, h.Bloom[:]); err != nil {
		return 0, fmt.Errorf("read Bloom: %w", err)
	}
	if pos, h.Difficulty, err = rlp.BigInt(payload, pos); err != nil {
		return 0, fmt.Errorf("read Difficulty: %w", err)
	}
	if pos, h.Number, err = rlp.BigInt(payload, pos); err != nil {
		return 0, fmt.Errorf("read Number: %w", err)
	}
	if pos, h.GasLimit, err = rlp.U64(payload, pos); err != nil {
		return 0, fmt.Errorf("read GasLimit: %w", err)
	}
	if pos, h.GasUsed, err = rlp.U64(payload, pos); err != nil {
		return 0, fmt.Errorf("read GasUsed: %w", err)
	}
	if pos, h.Time, err = rlp.U64(payload, pos); err != nil {
		return 0, fmt.Errorf("read Time: %w", err)
	}
	if pos, h.Extra, err = rlp.Bytes(payload, pos); err != nil {
		return 0, fmt.Errorf("read Extra: %w", err)
	}
	if pos, err = rlp.ParseHash(payload, pos, h.MixDigest[:]); err != nil {
		return 0, fmt.Errorf("read MixDigest: %w", err)
	}
	if pos, err = rlp.Fixed(payload, pos, h.Nonce[:]); err != nil {
		return 0, fmt.Errorf("read Nonce: %w", err)
	}
	return pos, nil
}

// EncodeRLP writes the hash encoding of the header. The extension is not part of it.
func (h *Header) EncodeRLP(w io.Writer) error {
	buf := rlp.NewEncoderBuffer(w)
	l := buf.List()
	h.encodeConsensusFields(buf)
	encodeSlots(buf, h, headerOptionalSlots)
	buf.ListEnd(l)
	return buf.Flush()
}

// EncodeHashRLP returns the hash encoding of the header.
func (h *Header) EncodeHashRLP() []byte {
	var b bytes.Buffer
	if err := h.EncodeRLP(&b); err != nil {
		panic(err) // bytes.Buffer never fails
	}
	return b.Bytes()
}

// DecodeRLP decodes a hash-encoded header. The extension is left untouched.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	raw, err := s.Raw()
	if err != nil {
		return err
	}
	pos, err := h.decodeHashRLP(raw, 0)
	if err != nil {
		return err
	}
	if pos != len(raw) {
		return rlp.ErrTrailingBytes
	}
	return nil
}

// DecodeHeaderRLP decodes a header from its hash encoding.
func DecodeHeaderRLP(payload []byte) (*Header, error) {
	h := new(Header)
	pos, err := h.decodeHashRLP(payload, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(payload) {
		return nil, fmt.Errorf("header: %w", rlp.ErrTrailingBytes)
	}
	return h, nil
}

func (h *Header) decodeHashRLP(payload []byte, pos int) (int, error) {
	dataPos, dataLen, err := rlp.List(payload, pos)
	if err != nil {
		return 0, fmt.Errorf("header: %w", err)
	}
	end := dataPos + dataLen
	list := payload[:end]
	if pos, err = h.decodeConsensusFields(list, dataPos); err != nil {
		return 0, fmt.Errorf("header: %w", err)
	}
	if pos, err = decodeSlots(list, pos, h, headerOptionalSlots); err != nil {
		return 0, fmt.Errorf("header: %w", err)
	}
	if pos != end {
		return 0, &ListLengthMismatchError{Declared: dataLen, Consumed: pos - dataPos}
	}
	return end, nil
}
