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

package badgerdb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/tevm-erigon/db/kv"
	"github.com/telosnetwork/tevm-erigon/db/kv/badgerdb"
	"github.com/telosnetwork/tevm-erigon/db/kv/memdb"
)

func TestPutGetDelete(t *testing.T) {
	db := memdb.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		if err := tx.Put(kv.Headers, []byte{1}, []byte("a")); err != nil {
			return err
		}
		return tx.Put(kv.HeaderNumber, []byte{1}, []byte("b"))
	}))

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(kv.Headers, []byte{1})
		require.NoError(t, err)
		require.Equal(t, []byte("a"), v)
		v, err = tx.GetOne(kv.HeaderNumber, []byte{1})
		require.NoError(t, err)
		require.Equal(t, []byte("b"), v)
		v, err = tx.GetOne(kv.Headers, []byte{2})
		require.NoError(t, err)
		require.Nil(t, v)
		return nil
	}))

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		return tx.Delete(kv.Headers, []byte{1})
	}))
	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		has, err := tx.Has(kv.Headers, []byte{1})
		require.NoError(t, err)
		require.False(t, has)
		return nil
	}))
}

func TestUpdateErrorDiscardsWrites(t *testing.T) {
	db := memdb.NewTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Update(ctx, func(tx kv.RwTx) error {
		require.NoError(t, tx.Put(kv.PlainState, []byte{1}, []byte{2}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(kv.PlainState, []byte{1})
		require.NoError(t, err)
		require.Nil(t, v)
		return nil
	}))
}

func TestForPrefixStaysInTable(t *testing.T) {
	_, tx := memdb.NewTestTx(t)
	// "Header" is a string prefix of "HeaderNumber"
	require.NoError(t, tx.Put(kv.Headers, []byte{1, 1}, []byte{1}))
	require.NoError(t, tx.Put(kv.Headers, []byte{1, 2}, []byte{2}))
	require.NoError(t, tx.Put(kv.Headers, []byte{2, 1}, []byte{3}))
	require.NoError(t, tx.Put(kv.HeaderNumber, []byte{1, 3}, []byte{4}))

	var keys [][]byte
	require.NoError(t, tx.ForPrefix(kv.Headers, []byte{1}, func(k, v []byte) error {
		keys = append(keys, k)
		return nil
	}))
	require.Equal(t, [][]byte{{1, 1}, {1, 2}}, keys)

	keys = nil
	require.NoError(t, tx.ForPrefix(kv.Headers, nil, func(k, v []byte) error {
		keys = append(keys, k)
		return nil
	}))
	require.Len(t, keys, 3)
}

func TestUnknownTable(t *testing.T) {
	_, tx := memdb.NewTestTx(t)
	require.ErrorIs(t, tx.Put("NoSuchTable", []byte{1}, nil), kv.ErrUnknownTable)
}

func TestCanceledContext(t *testing.T) {
	db := memdb.NewTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := db.View(ctx, func(tx kv.Tx) error {
		_, err := tx.GetOne(kv.Headers, []byte{1})
		return err
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	db, err := badgerdb.New(log.New()).Path(dir).Open()
	require.NoError(t, err)
	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		return tx.Put(kv.Code, []byte{9}, []byte{0x60, 0x00})
	}))
	db.Close()

	db, err = badgerdb.New(log.New()).Path(dir).Open()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(kv.Code, []byte{9})
		require.NoError(t, err)
		require.Equal(t, []byte{0x60, 0x00}, v)
		return nil
	}))

	_, err = badgerdb.New(log.New()).Open()
	require.Error(t, err)
}
