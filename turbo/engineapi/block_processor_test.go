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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/tevm-erigon/core/rawdb"
	"github.com/telosnetwork/tevm-erigon/core/state"
	"github.com/telosnetwork/tevm-erigon/core/statediff"
	"github.com/telosnetwork/tevm-erigon/core/types"
	"github.com/telosnetwork/tevm-erigon/crypto"
	"github.com/telosnetwork/tevm-erigon/db/kv"
	"github.com/telosnetwork/tevm-erigon/db/kv/memdb"
	"github.com/telosnetwork/tevm-erigon/eth/ethconfig"
	"github.com/telosnetwork/tevm-erigon/turbo/nativeledger"
)

var addrA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

type mapSource map[uint64]*nativeledger.BlockDiffs

func (s mapSource) FetchBlockDiffs(_ context.Context, number uint64) (*nativeledger.BlockDiffs, error) {
	d, ok := s[number]
	if !ok {
		return nil, nativeledger.ErrNotFound
	}
	return d, nil
}

// creditExecutor sets the balance of addrA and records the environment of the first three transactions.
type creditExecutor struct {
	balances map[uint64]uint64
	envs     []types.TxEnv
}

func (e *creditExecutor) Execute(_ context.Context, header *types.Header, tx kv.Tx, env func(txIndex uint64) types.TxEnv) (state.TransitionState, error) {
	e.envs = e.envs[:0]
	for i := uint64(0); i < 3; i++ {
		e.envs = append(e.envs, env(i))
	}
	prev, err := state.NewPlainStateReader(tx).ReadAccountData(addrA)
	if err != nil {
		return nil, err
	}
	ta := &state.TransitionAccount{
		Info:   &state.AccountInfo{Balance: *uint256.NewInt(e.balances[header.NumberU64()]), CodeHash: crypto.EmptyCodeHash},
		Status: state.Changed,
	}
	if prev != nil {
		ta.PreviousInfo = &state.AccountInfo{Balance: prev.Balance, Nonce: prev.Nonce, CodeHash: prev.CodeHash}
	}
	return state.TransitionState{addrA: ta}, nil
}

func blockHeader(number int64, parent common.Hash) *types.Header {
	return &types.Header{
		ParentHash:  parent,
		UncleHash:   types.EmptyUncleHash,
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  big.NewInt(0),
		Number:      big.NewInt(number),
		GasLimit:    0x7fffffff,
		Time:        uint64(1700000000 + number),
	}
}

func balanceDiffs(number, balance uint64) *nativeledger.BlockDiffs {
	return &nativeledger.BlockDiffs{
		Number:   number,
		Accounts: []statediff.AccountDiffRow{{Address: addrA, Account: "alice", Balance: uint256.NewInt(balance)}},
	}
}

func newProcessor(t *testing.T, mode statediff.Mode, source nativeledger.Source, executor Executor) (*BlockProcessor, kv.RwDB) {
	t.Helper()
	db := memdb.NewTestDB(t)
	cfg := ethconfig.Defaults
	cfg.Telos.Mode = mode
	cfg.Telos.GasCacheSeconds = 0
	p, err := NewBlockProcessor(db, source, executor, &cfg, log.New())
	require.NoError(t, err)
	return p, db
}

func readBalance(t *testing.T, db kv.RwDB) uint64 {
	t.Helper()
	var balance uint64
	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		acc, err := state.NewPlainStateReader(tx).ReadAccountData(addrA)
		if err != nil {
			return err
		}
		require.NotNil(t, acc)
		balance = acc.Balance.Uint64()
		return nil
	}))
	return balance
}

func TestProcessBlocks(t *testing.T) {
	ctx := context.Background()
	genesisDiffs := balanceDiffs(0, 100)
	genesisDiffs.GasPriceChanges = []nativeledger.GasPriceEvent{{Height: 2, Price: *uint256.NewInt(420_000_000_000)}}
	source := mapSource{0: genesisDiffs, 1: balanceDiffs(1, 150)}
	executor := &creditExecutor{balances: map[uint64]uint64{0: 100, 1: 150}}
	p, db := newProcessor(t, statediff.ModeFatal, source, executor)

	price, err := p.SuggestGasPrice(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(500_000_000_000), price.Uint64())

	res, err := p.ProcessBlock(ctx, blockHeader(0, common.Hash{}))
	require.NoError(t, err)
	require.Equal(t, statediff.OutcomeConsistent, res.Outcome)
	require.Equal(t, uint64(500_000_000_000), executor.envs[0].GasPrice.Uint64())
	require.Equal(t, uint64(500_000_000_000), executor.envs[1].GasPrice.Uint64())
	require.Equal(t, uint64(420_000_000_000), executor.envs[2].GasPrice.Uint64())
	require.Equal(t, uint64(100), readBalance(t, db))

	price, err = p.SuggestGasPrice(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(420_000_000_000), price.Uint64())

	res1, err := p.ProcessBlock(ctx, blockHeader(1, res.Hash))
	require.NoError(t, err)
	require.Equal(t, uint64(420_000_000_000), res1.Header.Extension.StartingGasPrice.Uint64())
	require.Nil(t, res1.Header.Extension.GasPriceChange)
	for _, env := range executor.envs {
		require.Equal(t, uint64(420_000_000_000), env.GasPrice.Uint64())
	}
	require.Equal(t, uint64(150), readBalance(t, db))

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		head, err := rawdb.ReadCurrentHeader(tx)
		require.NoError(t, err)
		require.Equal(t, res1.Hash, head.Hash())
		require.Equal(t, res1.Header.Extension, head.Extension)
		canonical, err := rawdb.ReadCanonicalHash(tx, 0)
		require.NoError(t, err)
		require.Equal(t, res.Hash, canonical)
		return nil
	}))
}

func TestProcessBlockCorrective(t *testing.T) {
	source := mapSource{0: balanceDiffs(0, 250)}
	executor := &creditExecutor{balances: map[uint64]uint64{0: 100}}
	p, db := newProcessor(t, statediff.ModeCorrective, source, executor)

	res, err := p.ProcessBlock(context.Background(), blockHeader(0, common.Hash{}))
	require.NoError(t, err)
	require.Equal(t, statediff.OutcomeCorrected, res.Outcome)
	require.Len(t, res.Corrected, 1)
	require.Equal(t, statediff.MismatchBalance, res.Corrected[0].Kind)
	require.Equal(t, uint64(250), readBalance(t, db))
}

func TestProcessBlockFatalRollsBack(t *testing.T) {
	ctx := context.Background()
	source := mapSource{0: balanceDiffs(0, 250)}
	executor := &creditExecutor{balances: map[uint64]uint64{0: 100}}
	p, db := newProcessor(t, statediff.ModeFatal, source, executor)

	_, err := p.ProcessBlock(ctx, blockHeader(0, common.Hash{}))
	require.ErrorIs(t, err, statediff.ErrConsensusMismatch)
	require.Zero(t, p.headers.Len())

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		acc, err := state.NewPlainStateReader(tx).ReadAccountData(addrA)
		require.NoError(t, err)
		require.Nil(t, acc)
		require.Equal(t, common.Hash{}, rawdb.ReadHeadHeaderHash(tx))
		return nil
	}))
}

func TestProcessBlockErrors(t *testing.T) {
	ctx := context.Background()
	tooMany := balanceDiffs(1, 100)
	tooMany.RevisionChanges = []nativeledger.RevisionEvent{{Height: 1, Revision: 2}, {Height: 2, Revision: 3}}
	source := mapSource{1: tooMany, 2: balanceDiffs(2, 100)}
	p, _ := newProcessor(t, statediff.ModeFatal, source, &creditExecutor{balances: map[uint64]uint64{}})

	_, err := p.ProcessBlock(ctx, blockHeader(1, common.Hash{}))
	require.ErrorIs(t, err, nativeledger.ErrTooManyChanges)

	_, err = p.ProcessBlock(ctx, blockHeader(2, common.Hash{2}))
	require.ErrorIs(t, err, ErrUnknownParent)

	_, err = p.ProcessBlock(ctx, blockHeader(3, common.Hash{}))
	require.ErrorIs(t, err, nativeledger.ErrNotFound)
}
