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

package main

import (
	"github.com/urfave/cli/v2"

	"github.com/telosnetwork/tevm-erigon/eth/ethconfig"
	"github.com/telosnetwork/tevm-erigon/turbo/logging"
)

var (
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Sets flags from a .toml or .yaml file; flags given on the command line take precedence",
	}
	DataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Path of the chain database",
		Value: ethconfig.Defaults.DB.Path,
	}
	InMemoryFlag = cli.BoolFlag{
		Name:  "db.in_memory",
		Usage: "Keep the chain database in memory only",
	}
	MemTableSizeFlag = cli.StringFlag{
		Name:  "db.mem_table_size",
		Usage: "Size of the database memtable, e.g. 64MB",
		Value: ethconfig.Defaults.DB.MemTableSize.String(),
	}
	HeaderCacheSizeFlag = cli.IntFlag{
		Name:  "header_cache_size",
		Usage: "Number of recent headers kept in memory",
		Value: ethconfig.Defaults.HeaderCacheSize,
	}
	ModeFlag = cli.StringFlag{
		Name:  "telos.mode",
		Usage: "Reaction to state drift from the native ledger: fatal or corrective",
		Value: ethconfig.Defaults.Telos.Mode.String(),
	}
	NativeDiffsDirFlag = cli.StringFlag{
		Name:  "telos.native_diffs_dir",
		Usage: "Directory holding the native ledger diffs as <number>.json",
	}
	GasCacheSecondsFlag = cli.Uint64Flag{
		Name:  "telos.gas_cache_seconds",
		Usage: "How long a suggested gas price is reused, 0 disables caching",
		Value: ethconfig.Defaults.Telos.GasCacheSeconds,
	}
	RetriesFlag = cli.Uint64Flag{
		Name:  "telos.retries",
		Usage: "Attempts made to fetch the native diffs of a block",
		Value: ethconfig.Defaults.Telos.Retries,
	}
	GenesisGasPriceFlag = cli.StringFlag{
		Name:  "genesis.starting_gas_price",
		Usage: "Gas price in effect at the first block",
		Value: ethconfig.Defaults.Genesis.StartingGasPrice,
	}
	GenesisRevisionFlag = cli.Uint64Flag{
		Name:  "genesis.starting_revision",
		Usage: "Revision in effect at the first block",
		Value: ethconfig.Defaults.Genesis.StartingRevision,
	}
	MetricsAddrFlag = cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Serve prometheus metrics on this address, disabled when empty",
	}

	FromFlag = cli.Uint64Flag{
		Name:  "from",
		Usage: "First block to import; defaults to the block after the current head",
	}
	ToFlag = cli.Uint64Flag{
		Name:     "to",
		Usage:    "Last block to import",
		Required: true,
	}
	NumberFlag = cli.Uint64Flag{
		Name:  "number",
		Usage: "Canonical block number; defaults to the current head",
	}
)

var DefaultFlags = append([]cli.Flag{
	&ConfigFlag,
	&DataDirFlag,
	&InMemoryFlag,
	&MemTableSizeFlag,
	&HeaderCacheSizeFlag,
	&ModeFlag,
	&NativeDiffsDirFlag,
	&GasCacheSecondsFlag,
	&RetriesFlag,
	&GenesisGasPriceFlag,
	&GenesisRevisionFlag,
	&MetricsAddrFlag,
}, logging.Flags...)
