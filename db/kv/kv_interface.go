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

package kv

import (
	"context"
	"errors"
)

// ErrUnknownTable is returned for tables missing from ChaindataTables.
var ErrUnknownTable = errors.New("kv: unknown table")

/*
RoDB low-level interface - common abstraction over the embedded store backends.

Common pattern for short-living transactions:

	if err := db.View(ctx, func(tx kv.Tx) error {
	    ... code which uses database in transaction
	}); err != nil {
			return err
	}

Common pattern for long-living transactions:

	tx, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	... code which uses database in transaction

	err := tx.Commit()
	if err != nil {
		return err
	}
*/
type RoDB interface {
	Close()

	// View like BeginRo, but for short-living transactions. Example:
	//  if err := db.View(ctx, func(tx ethdb.Tx) error {
	//     ... code which uses database in transaction
	//  }); err != nil {
	//		return err
	// }
	View(ctx context.Context, f func(tx Tx) error) error

	// BeginRo - creates transaction, must not be moved between gorotines
	BeginRo(ctx context.Context) (Tx, error)
}

type RwDB interface {
	RoDB

	// Update runs f inside one read-write transaction; an error from f discards every write.
	Update(ctx context.Context, f func(tx RwTx) error) error

	BeginRw(ctx context.Context) (RwTx, error)
}

// Getter wraps the database read operations.
type Getter interface {
	// Has indicates whether a key exists in the database.
	Has(table string, key []byte) (bool, error)

	// GetOne references a readonly section of memory that must not be accessed after txn has terminated
	GetOne(table string, key []byte) (val []byte, err error)

	// ForPrefix iterates over all keys starting with prefix in key order.
	ForPrefix(table string, prefix []byte, walker func(k, v []byte) error) error
}

// Putter wraps the database write operations.
type Putter interface {
	// Put inserts or updates a single entry.
	Put(table string, k, v []byte) error

	// Delete removes a single entry.
	Delete(table string, k []byte) error
}

// Tx
// WARNING:
//   - Tx is not threadsafe and may only be used in the goroutine that created it
type Tx interface {
	Getter

	// Rollback - abandon all the operations of the transaction instead of saving them.
	Rollback()
}

// RwTx
//
// WARNING:
//   - RwTx is not threadsafe and may only be used in the goroutine that created it.
type RwTx interface {
	Tx
	Putter

	Commit() error // Commit all the operations of a transaction into the database.
}
