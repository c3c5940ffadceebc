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

package types

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var ErrChangeAtGenesisHeight = errors.New("block extension: change recorded at height 0")

// GasPriceChange records that, starting from transaction index Height of the block,
// the native ledger charges Price.
type GasPriceChange struct {
	Height uint64      `json:"height"`
	Price  uint256.Int `json:"price"`
}

// RevisionChange records that, starting from transaction index Height of the block,
// the native ledger runs at Revision.
type RevisionChange struct {
	Height   uint64 `json:"height"`
	Revision uint64 `json:"revision"`
}

// BlockExtension carries the native gas price and revision timeline of a block.
// It is persisted with the header but never contributes to the header hash.
//
// Starting values are the ones in effect at the first transaction of the block.
// A recorded change never has Height 0: such a change is folded into the
// starting value by NewBlockExtensionFromParent.
type BlockExtension struct {
	StartingGasPrice       uint256.Int     `json:"startingGasPrice"`
	StartingRevisionNumber uint64          `json:"startingRevisionNumber"`
	GasPriceChange         *GasPriceChange `json:"gasPriceChange,omitempty"`
	RevisionChange         *RevisionChange `json:"revisionChange,omitempty"`
}

// TxEnv is the per-transaction environment derived from a BlockExtension.
type TxEnv struct {
	GasPrice uint256.Int
	Revision uint64
}

// ChangePhase describes where a transaction index sits relative to a recorded change.
type ChangePhase uint8

const (
	// PhaseUnchanged: no change recorded in the block.
	PhaseUnchanged ChangePhase = iota
	// PhasePending: a change is recorded but has not reached this index yet.
	PhasePending
	// PhaseInEffect: the recorded change applies at this index.
	PhaseInEffect
)

func (p ChangePhase) String() string {
	switch p {
	case PhaseUnchanged:
		return "unchanged"
	case PhasePending:
		return "pending"
	case PhaseInEffect:
		return "in-effect"
	default:
		return fmt.Sprintf("ChangePhase(%d)", uint8(p))
	}
}

func changePhase(changeHeight, height uint64) ChangePhase {
	if changeHeight <= height {
		return PhaseInEffect
	}
	return PhasePending
}

// NewBlockExtensionFromParent derives the extension of a child block from its parent and the
// change events the native ledger reported for the child.
//
// A change at height 0 supersedes the starting value and is not recorded. A change at a later
// height is recorded, with the parent's last value as the starting value. A nil change carries
// the parent's last value forward.
func NewBlockExtensionFromParent(parent *BlockExtension, gasPriceChange *GasPriceChange, revisionChange *RevisionChange) BlockExtension {
	var ext BlockExtension
	ext.StartingGasPrice = parent.LastGasPrice()
	ext.StartingRevisionNumber = parent.LastRevision()

	if gasPriceChange != nil {
		if gasPriceChange.Height == 0 {
			ext.StartingGasPrice = gasPriceChange.Price
		} else {
			c := *gasPriceChange
			ext.GasPriceChange = &c
		}
	}
	if revisionChange != nil {
		if revisionChange.Height == 0 {
			ext.StartingRevisionNumber = revisionChange.Revision
		} else {
			c := *revisionChange
			ext.RevisionChange = &c
		}
	}
	return ext
}

// LastGasPrice is the gas price in effect after the last transaction of the block.
func (e *BlockExtension) LastGasPrice() uint256.Int {
	if e.GasPriceChange != nil {
		return e.GasPriceChange.Price
	}
	return e.StartingGasPrice
}

// LastRevision is the revision in effect after the last transaction of the block.
func (e *BlockExtension) LastRevision() uint64 {
	if e.RevisionChange != nil {
		return e.RevisionChange.Revision
	}
	return e.StartingRevisionNumber
}

// ToChild is the extension of a child block without change events.
func (e *BlockExtension) ToChild() BlockExtension {
	return BlockExtension{
		StartingGasPrice:       e.LastGasPrice(),
		StartingRevisionNumber: e.LastRevision(),
	}
}

func (e *BlockExtension) GasPricePhase(height uint64) ChangePhase {
	if e.GasPriceChange == nil {
		return PhaseUnchanged
	}
	return changePhase(e.GasPriceChange.Height, height)
}

func (e *BlockExtension) RevisionPhase(height uint64) ChangePhase {
	if e.RevisionChange == nil {
		return PhaseUnchanged
	}
	return changePhase(e.RevisionChange.Height, height)
}

// TxEnvAt returns the gas price and revision in effect for the transaction at index height.
func (e *BlockExtension) TxEnvAt(height uint64) TxEnv {
	env := TxEnv{GasPrice: e.StartingGasPrice, Revision: e.StartingRevisionNumber}
	if e.GasPricePhase(height) == PhaseInEffect {
		env.GasPrice = e.GasPriceChange.Price
	}
	if e.RevisionPhase(height) == PhaseInEffect {
		env.Revision = e.RevisionChange.Revision
	}
	return env
}

// Validate rejects extensions that NewBlockExtensionFromParent could not have produced.
func (e *BlockExtension) Validate() error {
	if e.GasPriceChange != nil && e.GasPriceChange.Height == 0 {
		return fmt.Errorf("%w: gas price", ErrChangeAtGenesisHeight)
	}
	if e.RevisionChange != nil && e.RevisionChange.Height == 0 {
		return fmt.Errorf("%w: revision", ErrChangeAtGenesisHeight)
	}
	return nil
}

// Copy returns a deep copy of the extension.
func (e *BlockExtension) Copy() BlockExtension {
	cpy := *e
	if e.GasPriceChange != nil {
		c := *e.GasPriceChange
		cpy.GasPriceChange = &c
	}
	if e.RevisionChange != nil {
		c := *e.RevisionChange
		cpy.RevisionChange = &c
	}
	return cpy
}
