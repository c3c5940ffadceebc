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

package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/dgraph-io/badger/v4"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/tevm-erigon/db/kv"
)

// tableSeparator ends every table prefix so that no table name is a key prefix of another.
const tableSeparator = 0x00

const DefaultMemTableSize = 64 * datasize.MB

type BadgerOpts struct {
	path         string
	inMem        bool
	memTableSize datasize.ByteSize
	log          log.Logger
}

func New(logger log.Logger) BadgerOpts {
	return BadgerOpts{memTableSize: DefaultMemTableSize, log: logger}
}

func (opts BadgerOpts) Path(path string) BadgerOpts {
	opts.path = path
	return opts
}

func (opts BadgerOpts) InMem() BadgerOpts {
	opts.inMem = true
	return opts
}

func (opts BadgerOpts) MemTableSize(sz datasize.ByteSize) BadgerOpts {
	opts.memTableSize = sz
	return opts
}

func (opts BadgerOpts) Open() (kv.RwDB, error) {
	var bopts badger.Options
	if opts.inMem {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.path == "" {
			return nil, errors.New("badgerdb: path required for on-disk database")
		}
		bopts = badger.DefaultOptions(opts.path)
	}
	bopts = bopts.WithMemTableSize(int64(opts.memTableSize.Bytes())).WithLogger(badgerLogger{opts.log})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badgerdb: open %q: %w", opts.path, err)
	}
	opts.log.Debug("[db] opened badger", "path", opts.path, "inMem", opts.inMem, "memTable", opts.memTableSize)
	return &BadgerDB{badger: db, opts: opts, log: opts.log}, nil
}

func (opts BadgerOpts) MustOpen() kv.RwDB {
	db, err := opts.Open()
	if err != nil {
		panic(err)
	}
	return db
}

type BadgerDB struct {
	opts   BadgerOpts
	badger *badger.DB
	log    log.Logger
}

// Close closes the database.
// All transactions must be closed before closing the database.
func (db *BadgerDB) Close() {
	if err := db.badger.Close(); err != nil {
		db.log.Warn("[db] close", "err", err)
	}
}

func (db *BadgerDB) View(ctx context.Context, f func(tx kv.Tx) error) error {
	return db.badger.View(func(txn *badger.Txn) error {
		return f(&badgerTx{ctx: ctx, badger: txn})
	})
}

func (db *BadgerDB) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
	return db.badger.Update(func(txn *badger.Txn) error {
		return f(&badgerTx{ctx: ctx, badger: txn, rw: true})
	})
}

func (db *BadgerDB) BeginRo(ctx context.Context) (kv.Tx, error) {
	return &badgerTx{ctx: ctx, badger: db.badger.NewTransaction(false)}, nil
}

func (db *BadgerDB) BeginRw(ctx context.Context) (kv.RwTx, error) {
	return &badgerTx{ctx: ctx, badger: db.badger.NewTransaction(true), rw: true}, nil
}

type badgerTx struct {
	ctx    context.Context
	badger *badger.Txn
	rw     bool
}

func tableKey(table string, key []byte) ([]byte, error) {
	if !kv.IsKnownTable(table) {
		return nil, fmt.Errorf("%w: %s", kv.ErrUnknownTable, table)
	}
	k := make([]byte, 0, len(table)+1+len(key))
	k = append(k, table...)
	k = append(k, tableSeparator)
	return append(k, key...), nil
}

func (tx *badgerTx) Has(table string, key []byte) (bool, error) {
	v, err := tx.GetOne(table, key)
	return v != nil, err
}

func (tx *badgerTx) GetOne(table string, key []byte) ([]byte, error) {
	if err := tx.ctx.Err(); err != nil {
		return nil, err
	}
	k, err := tableKey(table, key)
	if err != nil {
		return nil, err
	}
	item, err := tx.badger.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil) // can improve this by using pool
}

func (tx *badgerTx) ForPrefix(table string, prefix []byte, walker func(k, v []byte) error) error {
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	full, err := tableKey(table, prefix)
	if err != nil {
		return err
	}
	strip := len(table) + 1

	opts := badger.DefaultIteratorOptions
	opts.Prefix = full
	it := tx.badger.NewIterator(opts)
	defer it.Close()
	for it.Seek(full); it.ValidForPrefix(full); it.Next() {
		if err := tx.ctx.Err(); err != nil {
			return err
		}
		item := it.Item()
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := walker(item.KeyCopy(nil)[strip:], v); err != nil {
			return err
		}
	}
	return nil
}

func (tx *badgerTx) Put(table string, k, v []byte) error {
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	key, err := tableKey(table, k)
	if err != nil {
		return err
	}
	return tx.badger.Set(key, v)
}

func (tx *badgerTx) Delete(table string, k []byte) error {
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	key, err := tableKey(table, k)
	if err != nil {
		return err
	}
	return tx.badger.Delete(key)
}

func (tx *badgerTx) Commit() error {
	if !tx.rw {
		return errors.New("badgerdb: commit of read-only transaction")
	}
	return tx.badger.Commit()
}

// Rollback may be called after Commit.
func (tx *badgerTx) Rollback() {
	tx.badger.Discard()
}

// badgerLogger routes badger's internal logging into the node logger.
type badgerLogger struct {
	log log.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error("[badger] " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn("[badger] " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug("[badger] " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace("[badger] " + fmt.Sprintf(format, args...))
}
