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

package rawdb

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/tevm-erigon/core/types"
	"github.com/telosnetwork/tevm-erigon/db/kv"
	"github.com/telosnetwork/tevm-erigon/db/kv/dbutils"
)

// ReadCanonicalHash retrieves the hash assigned to a canonical block number.
func ReadCanonicalHash(db kv.Getter, number uint64) (common.Hash, error) {
	data, err := db.GetOne(kv.HeaderCanonical, dbutils.EncodeBlockNumber(number))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed ReadCanonicalHash: %w, number=%d", err, number)
	}
	if len(data) == 0 {
		return common.Hash{}, nil
	}
	return common.BytesToHash(data), nil
}

// WriteCanonicalHash stores the hash assigned to a canonical block number.
func WriteCanonicalHash(db kv.Putter, hash common.Hash, number uint64) error {
	if err := db.Put(kv.HeaderCanonical, dbutils.EncodeBlockNumber(number), hash.Bytes()); err != nil {
		return fmt.Errorf("failed to store number to hash mapping: %w", err)
	}
	return nil
}

// ReadHeaderNumber returns the header number assigned to a hash.
func ReadHeaderNumber(db kv.Getter, hash common.Hash) *uint64 {
	data, err := db.GetOne(kv.HeaderNumber, hash.Bytes())
	if err != nil {
		log.Error("ReadHeaderNumber failed", "err", err)
	}
	if len(data) == 0 {
		return nil
	}
	if len(data) != 8 {
		log.Error("ReadHeaderNumber got wrong data len", "len", len(data))
		return nil
	}
	number := binary.BigEndian.Uint64(data)
	return &number
}

// WriteHeaderNumber stores the hash->number mapping.
func WriteHeaderNumber(db kv.Putter, hash common.Hash, number uint64) error {
	return db.Put(kv.HeaderNumber, hash[:], dbutils.EncodeBlockNumber(number))
}

// ReadHeadHeaderHash retrieves the hash of the current canonical head header.
func ReadHeadHeaderHash(db kv.Getter) common.Hash {
	data, err := db.GetOne(kv.DatabaseInfo, kv.HeadHeaderKey)
	if err != nil {
		log.Error("ReadHeadHeaderHash failed", "err", err)
	}
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteHeadHeaderHash stores the hash of the current canonical head header.
func WriteHeadHeaderHash(db kv.Putter, hash common.Hash) error {
	if err := db.Put(kv.DatabaseInfo, kv.HeadHeaderKey, hash.Bytes()); err != nil {
		return fmt.Errorf("failed to store last header's hash: %w", err)
	}
	return nil
}

// ReadHeaderBytes retrieves a block header in its storage encoding.
func ReadHeaderBytes(db kv.Getter, hash common.Hash, number uint64) ([]byte, error) {
	return db.GetOne(kv.Headers, dbutils.HeaderKey(number, hash))
}

func HasHeader(db kv.Getter, hash common.Hash, number uint64) bool {
	if has, err := db.Has(kv.Headers, dbutils.HeaderKey(number, hash)); !has || err != nil {
		return false
	}
	return true
}

// ReadHeader retrieves the block header corresponding to the hash, nil if it is unknown.
// A record that fails to decode is an error: the store is corrupt.
func ReadHeader(db kv.Getter, hash common.Hash, number uint64) (*types.Header, error) {
	data, err := ReadHeaderBytes(db, hash, number)
	if err != nil {
		return nil, fmt.Errorf("ReadHeader %d %x: %w", number, hash, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	header, err := types.DecodeHeaderForStorage(data)
	if err != nil {
		return nil, fmt.Errorf("invalid block header record: number=%d hash=%x: %w", number, hash, err)
	}
	return header, nil
}

// WriteHeader stores a block header in its storage encoding, keyed by number and consensus
// hash, and the hash-to-number mapping.
func WriteHeader(db kv.Putter, header *types.Header) (common.Hash, error) {
	var (
		hash   = header.Hash()
		number = header.Number.Uint64()
	)
	if err := WriteHeaderNumber(db, hash, number); err != nil {
		return hash, fmt.Errorf("failed to store hash to number mapping: %w", err)
	}
	if err := db.Put(kv.Headers, dbutils.HeaderKey(number, hash), header.EncodeForStorage()); err != nil {
		return hash, fmt.Errorf("failed to store header: %w", err)
	}
	return hash, nil
}

// ReadHeadersByNumber returns every stored header at number, canonical or not.
func ReadHeadersByNumber(db kv.Getter, number uint64) ([]*types.Header, error) {
	var res []*types.Header
	err := db.ForPrefix(kv.Headers, dbutils.EncodeBlockNumber(number), func(k, v []byte) error {
		header, err := types.DecodeHeaderForStorage(v)
		if err != nil {
			return fmt.Errorf("invalid block header record: hash=%x, err=%w", k[dbutils.NumberLength:], err)
		}
		res = append(res, header)
		return nil
	})
	return res, err
}

func ReadHeaderByNumber(db kv.Getter, number uint64) (*types.Header, error) {
	hash, err := ReadCanonicalHash(db, number)
	if err != nil {
		return nil, err
	}
	if hash == (common.Hash{}) {
		return nil, nil
	}
	return ReadHeader(db, hash, number)
}

func ReadHeaderByHash(db kv.Getter, hash common.Hash) (*types.Header, error) {
	number := ReadHeaderNumber(db, hash)
	if number == nil {
		return nil, nil
	}
	return ReadHeader(db, hash, *number)
}

func ReadCurrentHeader(db kv.Getter) (*types.Header, error) {
	return ReadHeaderByHash(db, ReadHeadHeaderHash(db))
}

// WriteCanonicalHeader stores the header and makes it the canonical head.
func WriteCanonicalHeader(db kv.Putter, header *types.Header) (common.Hash, error) {
	hash, err := WriteHeader(db, header)
	if err != nil {
		return hash, err
	}
	if err := WriteCanonicalHash(db, hash, header.Number.Uint64()); err != nil {
		return hash, err
	}
	return hash, WriteHeadHeaderHash(db, hash)
}
