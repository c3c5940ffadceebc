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
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/telosnetwork/tevm-erigon/db/kv"
	"github.com/telosnetwork/tevm-erigon/db/kv/badgerdb"
	"github.com/telosnetwork/tevm-erigon/eth/ethconfig"
	"github.com/telosnetwork/tevm-erigon/metrics"
	"github.com/telosnetwork/tevm-erigon/turbo/logging"
)

func main() {
	defer func() {
		panicResult := recover()
		if panicResult == nil {
			return
		}

		log.Error("catch panic", "err", panicResult, "stack", string(debug.Stack()))
		os.Exit(1)
	}()

	if err := makeApp().Run(os.Args); err != nil {
		_, printErr := fmt.Fprintln(os.Stderr, err)
		if printErr != nil {
			log.Warn("Fprintln error", "err", printErr)
		}
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	return &cli.App{
		Name:  "tevm",
		Usage: "Telos EVM chain store reconciled against the native ledger",
		Flags: DefaultFlags,
		Before: func(cliCtx *cli.Context) error {
			configFilePath := cliCtx.String(ConfigFlag.Name)
			if configFilePath == "" {
				return nil
			}
			if err := setFlagsFromConfigFile(cliCtx, configFilePath); err != nil {
				return fmt.Errorf("failed setting config flags from yaml/toml file: %w", err)
			}
			return nil
		},
		Commands: []*cli.Command{
			importCommand,
			headerCommand,
			gasPriceCommand,
		},
	}
}

// node is what every command needs: the parsed config, the logger and the open chain database.
type node struct {
	cfg     *ethconfig.Config
	logger  log.Logger
	db      kv.RwDB
	closers []func()
}

func openNode(cliCtx *cli.Context) (*node, error) {
	logger := logging.SetupLoggerCtx("tevm", cliCtx)
	cfg, err := NewConfigUrfave(cliCtx)
	if err != nil {
		return nil, err
	}

	opts := badgerdb.New(logger).MemTableSize(cfg.DB.MemTableSize)
	if cfg.DB.InMemory {
		opts = opts.InMem()
	} else {
		opts = opts.Path(cfg.DB.Path)
	}
	db, err := opts.Open()
	if err != nil {
		return nil, fmt.Errorf("open chain database: %w", err)
	}
	n := &node{cfg: cfg, logger: logger, db: db, closers: []func(){db.Close}}

	if cfg.MetricsAddr != "" {
		srv := metrics.Setup(cfg.MetricsAddr, logger)
		n.closers = append(n.closers, func() {
			if err := srv.Close(); err != nil {
				logger.Warn("Closing metrics server", "err", err)
			}
		})
	}
	return n, nil
}

func (n *node) Close() {
	for i := len(n.closers) - 1; i >= 0; i-- {
		n.closers[i]()
	}
}

func rootContext(cliCtx *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
}
