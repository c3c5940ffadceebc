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

	"github.com/ethereum/go-ethereum/common"

	"github.com/telosnetwork/tevm-erigon/rlp"
)

// HeaderStorageVersion prefixes every stored header record.
const HeaderStorageVersion byte = 1

var ErrUnknownStorageVersion = errors.New("header storage: unknown record version")

// EncodeForStorage returns the durable record of the header:
//
//	version byte || rlp([consensus fields..., BaseFee, WithdrawalsHash, BlobGasUsed, ExcessBlobGas,
//	                     ParentBeaconBlockRoot, extra])
//
// The five optional consensus fields always occupy their position (placeholder when absent).
// extra is a trailing list [RequestsHash, Extension, ...]; readers ignore items they do not
// know, and records without it decode with no RequestsHash and a zero Extension.
func (h *Header) EncodeForStorage() []byte {
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
	extra := w.List()
	if h.RequestsHash != nil {
		rlp.EncodeHash(w, *h.RequestsHash)
	} else {
		rlp.EncodeEmptyString(w)
	}
	encodeExtension(w, &h.Extension)
	w.ListEnd(extra)
	w.ListEnd(l)
	if err := w.Flush(); err != nil {
		panic(err) // bytes.Buffer never fails
	}
	return b.Bytes()
}

// DecodeHeaderForStorage decodes a record produced by EncodeForStorage.
func DecodeHeaderForStorage(enc []byte) (*Header, error) {
	if len(enc) == 0 || enc[0] != HeaderStorageVersion {
		if len(enc) == 0 {
			return nil, fmt.Errorf("%w: empty record", ErrUnknownStorageVersion)
		}
		return nil, fmt.Errorf("%w: %d", ErrUnknownStorageVersion, enc[0])
	}
	payload := enc[1:]
	dataPos, dataLen, err := rlp.List(payload, 0)
	if err != nil {
		return nil, fmt.Errorf("header storage: %w", err)
	}
	end := dataPos + dataLen
	if end != len(payload) {
		return nil, fmt.Errorf("header storage: %w", rlp.ErrTrailingBytes)
	}

	h := new(Header)
	pos, err := h.decodeConsensusFields(payload, dataPos)
	if err != nil {
		return nil, fmt.Errorf("header storage: %w", err)
	}
	for i := range storageOptionalSlots {
		s := &storageOptionalSlots[i]
		if pos >= end {
			return nil, fmt.Errorf("header storage: missing %s", s.name)
		}
		if s.isPlaceholder(payload, pos) {
			pos++
			continue
		}
		if pos, err = s.decode(payload, pos, h); err != nil {
			return nil, fmt.Errorf("header storage: read %s: %w", s.name, err)
		}
	}
	if pos < end {
		if pos, err = h.decodeExtraFields(payload, pos); err != nil {
			return nil, fmt.Errorf("header storage: %w", err)
		}
	}
	if pos != end {
		return nil, &ListLengthMismatchError{Declared: dataLen, Consumed: pos - dataPos}
	}
	return h, nil
}

func (h *Header) decodeExtraFields(payload []byte, pos int) (int, error) {
	dataPos, dataLen, err := rlp.List(payload, pos)
	if err != nil {
		return 0, fmt.Errorf("read extra fields: %w", err)
	}
	end := dataPos + dataLen
	list := payload[:end]
	pos = dataPos
	if pos < end {
		if rlp.IsEmptyString(list, pos) {
			pos++
		} else {
			var v common.Hash
			if pos, err = rlp.ParseHash(list, pos, v[:]); err != nil {
				return 0, fmt.Errorf("read RequestsHash: %w", err)
			}
			h.RequestsHash = &v
		}
	}
	if pos < end {
		if pos, err = decodeExtension(list, pos, &h.Extension); err != nil {
			return 0, fmt.Errorf("read Extension: %w", err)
		}
	}
	// later items belong to newer record layouts
	return end, nil
}

func encodeExtension(w rlp.EncoderBuffer, e *BlockExtension) {
	l := w.List()
	rlp.EncodeU256(w, &e.StartingGasPrice)
	w.WriteUint64(e.StartingRevisionNumber)
	if c := e.GasPriceChange; c != nil {
		cl := w.List()
		w.WriteUint64(c.Height)
		rlp.EncodeU256(w, &c.Price)
		w.ListEnd(cl)
	} else {
		rlp.EncodeEmptyList(w)
	}
	if c := e.RevisionChange; c != nil {
		cl := w.List()
		w.WriteUint64(c.Height)
		w.WriteUint64(c.Revision)
		w.ListEnd(cl)
	} else {
		rlp.EncodeEmptyList(w)
	}
	w.ListEnd(l)
}

func decodeExtension(payload []byte, pos int, e *BlockExtension) (int, error) {
	if rlp.IsEmptyList(payload, pos) {
		*e = BlockExtension{}
		return pos + 1, nil
	}
	dataPos, dataLen, err := rlp.List(payload, pos)
	if err != nil {
		return 0, err
	}
	end := dataPos + dataLen
	list := payload[:end]
	if pos, err = rlp.U256(list, dataPos, &e.StartingGasPrice); err != nil {
		return 0, fmt.Errorf("read StartingGasPrice: %w", err)
	}
	if pos, e.StartingRevisionNumber, err = rlp.U64(list, pos); err != nil {
		return 0, fmt.Errorf("read StartingRevisionNumber: %w", err)
	}

	e.GasPriceChange = nil
	if rlp.IsEmptyList(list, pos) {
		pos++
	} else {
		c := new(GasPriceChange)
		cPos, cLen, err := rlp.List(list, pos)
		if err != nil {
			return 0, fmt.Errorf("read GasPriceChange: %w", err)
		}
		p := cPos
		if p, c.Height, err = rlp.U64(list[:cPos+cLen], p); err != nil {
			return 0, fmt.Errorf("read GasPriceChange.Height: %w", err)
		}
		if p, err = rlp.U256(list[:cPos+cLen], p, &c.Price); err != nil {
			return 0, fmt.Errorf("read GasPriceChange.Price: %w", err)
		}
		if p != cPos+cLen {
			return 0, &ListLengthMismatchError{Declared: cLen, Consumed: p - cPos}
		}
		e.GasPriceChange = c
		pos = p
	}

	e.RevisionChange = nil
	if rlp.IsEmptyList(list, pos) {
		pos++
	} else {
		c := new(RevisionChange)
		cPos, cLen, err := rlp.List(list, pos)
		if err != nil {
			return 0, fmt.Errorf("read RevisionChange: %w", err)
		}
		p := cPos
		if p, c.Height, err = rlp.U64(list[:cPos+cLen], p); err != nil {
			return 0, fmt.Errorf("read RevisionChange.Height: %w", err)
		}
		if p, c.Revision, err = rlp.U64(list[:cPos+cLen], p); err != nil {
			return 0, fmt.Errorf("read RevisionChange.Revision: %w", err)
		}
		if p != cPos+cLen {
			return 0, &ListLengthMismatchError{Declared: cLen, Consumed: p - cPos}
		}
		e.RevisionChange = c
		pos = p
	}
	if pos != end {
		return 0, &ListLengthMismatchError{Declared: dataLen, Consumed: pos - dataPos}
	}
	return end, nil
}
