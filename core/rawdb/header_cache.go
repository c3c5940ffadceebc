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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/telosnetwork/tevm-erigon/core/types"
	"github.com/telosnetwork/tevm-erigon/db/kv"
)

// HeaderCache keeps recently decoded headers by hash. Cached headers are shared: callers
// must Copy before mutating.
type HeaderCache struct {
	headers *lru.Cache[common.Hash, *types.Header]
}

func NewHeaderCache(size int) (*HeaderCache, error) {
	headers, err := lru.New[common.Hash, *types.Header](size)
	if err != nil {
		return nil, fmt.Errorf("header cache: %w", err)
	}
	return &HeaderCache{headers: headers}, nil
}

// ReadHeader is ReadHeader served from the cache when possible. Unknown headers are not cached.
func (c *HeaderCache) ReadHeader(db kv.Getter, hash common.Hash, number uint64) (*types.Header, error) {
	if h, ok := c.headers.Get(hash); ok && h.NumberU64() == number {
		return h, nil
	}
	h, err := ReadHeader(db, hash, number)
	if err != nil || h == nil {
		return h, err
	}
	c.headers.Add(hash, h)
	return h, nil
}

// WriteHeader stores the header and caches it under its hash.
func (c *HeaderCache) WriteHeader(db kv.Putter, header *types.Header) (common.Hash, error) {
	hash, err := WriteHeader(db, header)
	if err != nil {
		return hash, err
	}
	c.headers.Add(hash, header)
	return hash, nil
}

// Purge drops every cached header, used when the transaction that wrote them is rolled back.
func (c *HeaderCache) Purge() { c.headers.Purge() }

func (c *HeaderCache) Len() int { return c.headers.Len() }
