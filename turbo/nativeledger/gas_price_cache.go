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

package nativeledger

import (
	"context"
	"time"

	"github.com/holiman/uint256"
	"github.com/jellydator/ttlcache/v3"
)

// GasPriceSource reports the gas price currently configured on the native ledger.
type GasPriceSource interface {
	GasPrice(ctx context.Context) (*uint256.Int, error)
}

type GasPriceSourceFunc func(ctx context.Context) (*uint256.Int, error)

func (f GasPriceSourceFunc) GasPrice(ctx context.Context) (*uint256.Int, error) { return f(ctx) }

const gasPriceKey = "gasprice"

// GasPriceCache remembers the last gas price for ttl. A zero ttl disables caching.
type GasPriceCache struct {
	source GasPriceSource
	ttl    time.Duration
	cache  *ttlcache.Cache[string, uint256.Int]
}

func NewGasPriceCache(source GasPriceSource, ttl time.Duration) *GasPriceCache {
	return &GasPriceCache{
		source: source,
		ttl:    ttl,
		cache: ttlcache.New[string, uint256.Int](
			ttlcache.WithTTL[string, uint256.Int](ttl),
			ttlcache.WithDisableTouchOnHit[string, uint256.Int](),
		),
	}
}

func (c *GasPriceCache) GasPrice(ctx context.Context) (*uint256.Int, error) {
	if c.ttl > 0 {
		if item := c.cache.Get(gasPriceKey); item != nil {
			v := item.Value()
			return &v, nil
		}
	}
	v, err := c.source.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	if c.ttl > 0 {
		c.cache.Set(gasPriceKey, *v, ttlcache.DefaultTTL)
	}
	return v, nil
}

// Invalidate forgets the cached price, used when a block changes it.
func (c *GasPriceCache) Invalidate() {
	c.cache.Delete(gasPriceKey)
}
