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
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/telosnetwork/tevm-erigon/core/rawdb"
	"github.com/telosnetwork/tevm-erigon/core/state"
	"github.com/telosnetwork/tevm-erigon/core/statediff"
	"github.com/telosnetwork/tevm-erigon/core/types"
	"github.com/telosnetwork/tevm-erigon/db/kv"
	"github.com/telosnetwork/tevm-erigon/turbo/engineapi"
	"github.com/telosnetwork/tevm-erigon/turbo/nativeledger"
)

var (
	importCommand = &cli.Command{
		Name:   "import",
		Usage:  "Import blocks from the native diffs directory, seeding state from the native ledger",
		Flags:  []cli.Flag{&FromFlag, &ToFlag},
		Action: importBlocks,
	}
	headerCommand = &cli.Command{
		Name:   "header",
		Usage:  "Print a canonical header with its block extension",
		Flags:  []cli.Flag{&NumberFlag},
		Action: printHeader,
	}
	gasPriceCommand = &cli.Command{
		Name:   "gasprice",
		Usage:  "Print the gas price in effect at the head block",
		Action: printGasPrice,
	}
)

var errCommand = errors.New("command")

// replayExecutor runs no transactions. Every native change surfaces as drift, so state is
// rebuilt from the native ledger through corrective reconciliation.
type replayExecutor struct{}

func (replayExecutor) Execute(context.Context, *types.Header, kv.Tx, func(uint64) types.TxEnv) (state.TransitionState, error) {
	return state.TransitionState{}, nil
}

// replayHeader is the header of an empty block on top of parent.
func replayHeader(number uint64, parent common.Hash) *types.Header {
	return &types.Header{
		ParentHash:  parent,
		UncleHash:   types.EmptyUncleHash,
		Root:        types.EmptyRootHash,
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  new(big.Int),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    0x7fffffff,
	}
}

func importBlocks(cliCtx *cli.Context) error {
	n, err := openNode(cliCtx)
	if err != nil {
		return err
	}
	defer n.Close()
	if n.cfg.Telos.NativeDiffsDir == "" {
		return fmt.Errorf("%w: --%s is required", errCommand, NativeDiffsDirFlag.Name)
	}
	if n.cfg.Telos.Mode != statediff.ModeCorrective {
		return fmt.Errorf("%w: import replays native diffs without executing transactions and needs --%s=%s",
			errCommand, ModeFlag.Name, statediff.ModeCorrective)
	}

	ctx, cancel := rootContext(cliCtx)
	defer cancel()

	source := nativeledger.NewRetryingSource(nativeledger.NewFileSource(n.cfg.Telos.NativeDiffsDir), n.cfg.Telos.RetryPolicy(), n.logger)
	processor, err := engineapi.NewBlockProcessor(n.db, source, replayExecutor{}, n.cfg, n.logger)
	if err != nil {
		return err
	}

	from, parent, err := importStart(ctx, n.db, cliCtx)
	if err != nil {
		return err
	}
	to := cliCtx.Uint64(ToFlag.Name)
	if to < from {
		return fmt.Errorf("%w: --%s %d is below the first block %d", errCommand, ToFlag.Name, to, from)
	}

	var corrected int
	for number := from; number <= to; number++ {
		res, err := processor.ProcessBlock(ctx, replayHeader(number, parent))
		if err != nil {
			return err
		}
		parent = res.Hash
		corrected += len(res.Corrected)
	}
	n.logger.Info("Import done", "from", from, "to", to, "corrections", corrected)
	return nil
}

// importStart resolves the first block to import and its parent hash.
func importStart(ctx context.Context, db kv.RoDB, cliCtx *cli.Context) (from uint64, parent common.Hash, err error) {
	err = db.View(ctx, func(tx kv.Tx) error {
		if cliCtx.IsSet(FromFlag.Name) {
			from = cliCtx.Uint64(FromFlag.Name)
		} else {
			head, err := rawdb.ReadCurrentHeader(tx)
			if err != nil {
				return err
			}
			if head != nil {
				from = head.NumberU64() + 1
			}
		}
		if from == 0 {
			return nil
		}
		parent, err = rawdb.ReadCanonicalHash(tx, from-1)
		if err != nil {
			return err
		}
		if parent == (common.Hash{}) {
			return fmt.Errorf("%w: %d", engineapi.ErrUnknownParent, from-1)
		}
		return nil
	})
	return from, parent, err
}

func printHeader(cliCtx *cli.Context) error {
	n, err := openNode(cliCtx)
	if err != nil {
		return err
	}
	defer n.Close()

	var header *types.Header
	err = n.db.View(cliCtx.Context, func(tx kv.Tx) error {
		var err error
		if cliCtx.IsSet(NumberFlag.Name) {
			header, err = rawdb.ReadHeaderByNumber(tx, cliCtx.Uint64(NumberFlag.Name))
		} else {
			header, err = rawdb.ReadCurrentHeader(tx)
		}
		return err
	})
	if err != nil {
		return err
	}
	if header == nil {
		return fmt.Errorf("%w: header not found", errCommand)
	}
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(struct {
		Hash common.Hash `json:"hash"`
		*types.Header
	}{header.Hash(), header}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cliCtx.App.Writer, string(out))
	return err
}

func printGasPrice(cliCtx *cli.Context) error {
	n, err := openNode(cliCtx)
	if err != nil {
		return err
	}
	defer n.Close()

	processor, err := engineapi.NewBlockProcessor(n.db, nil, nil, n.cfg, n.logger)
	if err != nil {
		return err
	}
	price, err := processor.SuggestGasPrice(cliCtx.Context)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cliCtx.App.Writer, price.Dec())
	return err
}
