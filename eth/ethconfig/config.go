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

package ethconfig

import (
	"errors"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/holiman/uint256"

	"github.com/telosnetwork/tevm-erigon/core/statediff"
	"github.com/telosnetwork/tevm-erigon/core/types"
	"github.com/telosnetwork/tevm-erigon/turbo/nativeledger"
)

// Defaults contains default settings for use on the Telos EVM mainnet.
var Defaults = Config{
	Telos: Telos{
		Mode:            statediff.ModeFatal,
		GasCacheSeconds: 60,
		Retries:         nativeledger.DefaultRetryPolicy.Attempts,
	},
	DB: DB{
		Path:         "chaindata",
		MemTableSize: 64 * datasize.MB,
	},
	HeaderCacheSize: 512,
	Genesis: Genesis{
		StartingGasPrice: "500000000000",
		StartingRevision: 0,
	},
}

type Config struct {
	Telos           Telos   `toml:"telos" yaml:"telos"`
	DB              DB      `toml:"db" yaml:"db"`
	HeaderCacheSize int     `toml:"header_cache_size" yaml:"header_cache_size"`
	Genesis         Genesis `toml:"genesis" yaml:"genesis"`
	MetricsAddr     string  `toml:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

// Telos configures reconciliation against the native ledger.
type Telos struct {
	Mode            statediff.Mode `toml:"mode" yaml:"mode"`
	NativeDiffsDir  string         `toml:"native_diffs_dir" yaml:"native_diffs_dir"`
	GasCacheSeconds uint64         `toml:"gas_cache_seconds" yaml:"gas_cache_seconds"`
	Retries         uint64         `toml:"retries" yaml:"retries"`
}

type DB struct {
	InMemory     bool              `toml:"in_memory" yaml:"in_memory"`
	Path         string            `toml:"path" yaml:"path"`
	MemTableSize datasize.ByteSize `toml:"mem_table_size" yaml:"mem_table_size"`
}

// Genesis holds the extension of the first block, which has no parent to inherit from.
type Genesis struct {
	StartingGasPrice string `toml:"starting_gas_price" yaml:"starting_gas_price"`
	StartingRevision uint64 `toml:"starting_revision" yaml:"starting_revision"`
}

var ErrInvalidConfig = errors.New("invalid config")

// Extension returns the block extension the genesis block starts from.
func (g Genesis) Extension() (types.BlockExtension, error) {
	var price uint256.Int
	if err := price.SetFromDecimal(g.StartingGasPrice); err != nil {
		return types.BlockExtension{}, fmt.Errorf("%w: genesis starting gas price %q: %w", ErrInvalidConfig, g.StartingGasPrice, err)
	}
	return types.BlockExtension{StartingGasPrice: price, StartingRevisionNumber: g.StartingRevision}, nil
}

func (t Telos) GasCacheDuration() time.Duration {
	return time.Duration(t.GasCacheSeconds) * time.Second
}

// RetryPolicy is the default native ledger policy with the configured number of attempts.
func (t Telos) RetryPolicy() nativeledger.RetryPolicy {
	p := nativeledger.DefaultRetryPolicy
	p.Attempts = t.Retries
	return p
}

func (c *Config) Validate() error {
	if c.Telos.Retries == 0 {
		return fmt.Errorf("%w: telos.retries must be at least 1", ErrInvalidConfig)
	}
	if c.HeaderCacheSize <= 0 {
		return fmt.Errorf("%w: header_cache_size must be positive", ErrInvalidConfig)
	}
	if !c.DB.InMemory && c.DB.Path == "" {
		return fmt.Errorf("%w: db.path is required unless db.in_memory is set", ErrInvalidConfig)
	}
	if _, err := c.Genesis.Extension(); err != nil {
		return err
	}
	return nil
}
