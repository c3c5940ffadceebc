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

package engineapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/tevm-erigon/core/rawdb"
	"github.com/telosnetwork/tevm-erigon/core/state"
	"github.com/telosnetwork/tevm-erigon/core/statediff"
	"github.com/telosnetwork/tevm-erigon/core/types"
	"github.com/telosnetwork/tevm-erigon/db/kv"
	"github.com/telosnetwork/tevm-erigon/eth/ethconfig"
	"github.com/telosnetwork/tevm-erigon/metrics"
	"github.com/telosnetwork/tevm-erigon/turbo/nativeledger"
)

const logPrefix = "NewPayload"

var ErrUnknownParent = errors.New("parent header not found")

var (
	blocksProcessed = metrics.GetOrCreateCounter("tevm_blocks_processed_total")
	headBlock       = metrics.GetOrCreateGauge("tevm_head_block")
)

// Executor runs the EVM over a block on top of the state visible through tx. env gives each
// transaction the gas price and revision in effect at its index.
type Executor interface {
	Execute(ctx context.Context, header *types.Header, tx kv.Tx, env func(txIndex uint64) types.TxEnv) (state.TransitionState, error)
}

type ProcessResult struct {
	Hash      common.Hash
	Header    *types.Header
	Outcome   statediff.Outcome
	Corrected []statediff.Mismatch
}

// BlockProcessor imports blocks mirrored from the native ledger: it executes them, reconciles
// the result against the native diffs, and commits state and header in one transaction.
type BlockProcessor struct {
	db         kv.RwDB
	source     nativeledger.Source
	executor   Executor
	comparator *statediff.Comparator
	genesis    types.BlockExtension
	headers    *rawdb.HeaderCache
	gasPrice   *nativeledger.GasPriceCache
	logger     log.Logger
}

func NewBlockProcessor(db kv.RwDB, source nativeledger.Source, executor Executor, cfg *ethconfig.Config, logger log.Logger) (*BlockProcessor, error) {
	genesis, err := cfg.Genesis.Extension()
	if err != nil {
		return nil, err
	}
	headers, err := rawdb.NewHeaderCache(cfg.HeaderCacheSize)
	if err != nil {
		return nil, err
	}
	p := &BlockProcessor{
		db:         db,
		source:     source,
		executor:   executor,
		comparator: statediff.NewComparator(cfg.Telos.Mode, logger),
		genesis:    genesis,
		headers:    headers,
		logger:     logger,
	}
	p.gasPrice = nativeledger.NewGasPriceCache(nativeledger.GasPriceSourceFunc(p.headGasPrice), cfg.Telos.GasCacheDuration())
	return p, nil
}

// ProcessBlock imports the block described by header. The extension of header is ignored and
// derived from the parent and the native change events instead.
func (p *BlockProcessor) ProcessBlock(ctx context.Context, header *types.Header) (*ProcessResult, error) {
	number := header.NumberU64()
	p.logger.Debug(fmt.Sprintf("[%s] Handling new payload", logPrefix), "height", number)

	diffs, err := p.source.FetchBlockDiffs(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("[%s] block %d: %w", logPrefix, number, err)
	}
	gasPriceChange, err := diffs.GasPriceChange()
	if err != nil {
		return nil, err
	}
	revisionChange, err := diffs.RevisionChange()
	if err != nil {
		return nil, err
	}
	for _, created := range diffs.NewAddressesUsingCreate {
		p.logger.Debug(fmt.Sprintf("[%s] Native create", logPrefix), "height", number, "index", created.Index, "address", created.Address())
	}

	res := &ProcessResult{}
	err = p.db.Update(ctx, func(tx kv.RwTx) error {
		parent, err := p.parentExtension(tx, header)
		if err != nil {
			return err
		}
		h := types.NewHeaderWithExtension(header, parent, gasPriceChange, revisionChange)
		if err := h.SanityCheck(); err != nil {
			return err
		}

		transitions, err := p.executor.Execute(ctx, h, tx, h.Extension.TxEnvAt)
		if err != nil {
			return fmt.Errorf("execute block %d: %w", number, err)
		}

		reader := state.NewPlainStateReader(tx)
		reconciled, err := p.comparator.Reconcile(reader, transitions, diffs.Accounts, diffs.Storage, diffs.OpenWallet())
		if err != nil {
			return err
		}

		writer := state.NewPlainStateWriter(tx)
		if err := transitions.Commit(reader, writer); err != nil {
			return err
		}
		if err := reconciled.Override.Apply(ctx, writer); err != nil {
			return err
		}

		hash, err := p.headers.WriteHeader(tx, h)
		if err != nil {
			return err
		}
		if err := rawdb.WriteCanonicalHash(tx, hash, number); err != nil {
			return err
		}
		if err := rawdb.WriteHeadHeaderHash(tx, hash); err != nil {
			return err
		}
		*res = ProcessResult{Hash: hash, Header: h, Outcome: reconciled.Outcome, Corrected: reconciled.Corrected}
		return nil
	})
	if err != nil {
		// headers cached inside the rolled back transaction were never stored
		p.headers.Purge()
		return nil, err
	}

	if gasPriceChange != nil {
		p.gasPrice.Invalidate()
	}
	blocksProcessed.Inc()
	headBlock.SetUint64(number)
	lastGasPrice := res.Header.Extension.LastGasPrice()
	p.logger.Info(fmt.Sprintf("[%s] Block imported", logPrefix), "height", number, "hash", res.Hash,
		"outcome", res.Outcome, "corrected", len(res.Corrected), "gasPrice", lastGasPrice.Dec(),
		"revision", res.Header.Extension.LastRevision())
	return res, nil
}

func (p *BlockProcessor) parentExtension(tx kv.Getter, header *types.Header) (*types.BlockExtension, error) {
	number := header.NumberU64()
	if number == 0 {
		return &p.genesis, nil
	}
	parent, err := p.headers.ReadHeader(tx, header.ParentHash, number-1)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: %d %x", ErrUnknownParent, number-1, header.ParentHash)
	}
	return &parent.Extension, nil
}

// SuggestGasPrice returns the gas price in effect at the end of the head block.
func (p *BlockProcessor) SuggestGasPrice(ctx context.Context) (*uint256.Int, error) {
	return p.gasPrice.GasPrice(ctx)
}

func (p *BlockProcessor) headGasPrice(ctx context.Context) (*uint256.Int, error) {
	price := p.genesis.LastGasPrice()
	err := p.db.View(ctx, func(tx kv.Tx) error {
		head, err := rawdb.ReadCurrentHeader(tx)
		if err != nil || head == nil {
			return err
		}
		price = head.Extension.LastGasPrice()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &price, nil
}
