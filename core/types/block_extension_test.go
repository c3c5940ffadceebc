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
	"testing"

	"github.com/holiman/uint256"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func extensionWithChange(start, price, changeHeight uint64) BlockExtension {
	ext := BlockExtension{StartingGasPrice: *uint256.NewInt(start), StartingRevisionNumber: start}
	if changeHeight > 0 {
		ext.GasPriceChange = &GasPriceChange{Height: changeHeight, Price: *uint256.NewInt(price)}
		ext.RevisionChange = &RevisionChange{Height: changeHeight, Revision: price}
	}
	return ext
}

func TestBlockExtensionProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("tx env follows the recorded change", prop.ForAll(
		func(start, price, changeHeight, height uint64) bool {
			ext := extensionWithChange(start, price, changeHeight)
			env := ext.TxEnvAt(height)
			want := start
			if changeHeight > 0 && height >= changeHeight {
				want = price
			}
			return env.GasPrice.Eq(uint256.NewInt(want)) && env.Revision == want
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64Range(0, 50), gen.UInt64Range(0, 100),
	))

	properties.Property("change at height 0 supersedes the starting value", prop.ForAll(
		func(start, parentPrice, parentChange, price uint64) bool {
			parent := extensionWithChange(start, parentPrice, parentChange)
			child := NewBlockExtensionFromParent(&parent, &GasPriceChange{Price: *uint256.NewInt(price)}, &RevisionChange{Revision: price})
			return child.GasPriceChange == nil && child.RevisionChange == nil &&
				child.StartingGasPrice.Eq(uint256.NewInt(price)) && child.StartingRevisionNumber == price
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64Range(0, 50), gen.UInt64(),
	))

	properties.Property("later change starts from the parent's last value", prop.ForAll(
		func(start, parentPrice, parentChange, price, height uint64) bool {
			parent := extensionWithChange(start, parentPrice, parentChange)
			lastPrice, lastRevision := parent.LastGasPrice(), parent.LastRevision()
			child := NewBlockExtensionFromParent(&parent,
				&GasPriceChange{Height: height, Price: *uint256.NewInt(price)},
				&RevisionChange{Height: height, Revision: price})
			return child.StartingGasPrice.Eq(&lastPrice) && child.StartingRevisionNumber == lastRevision &&
				child.GasPriceChange != nil && child.GasPriceChange.Height == height &&
				child.RevisionChange != nil && child.RevisionChange.Revision == price &&
				child.Validate() == nil
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64Range(0, 50), gen.UInt64(), gen.UInt64Range(1, 1000),
	))

	properties.Property("to child carries the last values without changes", prop.ForAll(
		func(start, price, changeHeight uint64) bool {
			parent := extensionWithChange(start, price, changeHeight)
			child := parent.ToChild()
			last := parent.LastGasPrice()
			return child.GasPriceChange == nil && child.RevisionChange == nil &&
				child.StartingGasPrice.Eq(&last) && child.StartingRevisionNumber == parent.LastRevision() &&
				child == NewBlockExtensionFromParent(&parent, nil, nil)
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64Range(0, 50),
	))

	properties.TestingRun(t)
}

func TestBlockExtensionPhases(t *testing.T) {
	ext := extensionWithChange(100, 120, 5)
	require.Equal(t, PhasePending, ext.GasPricePhase(4))
	require.Equal(t, PhaseInEffect, ext.GasPricePhase(5))
	require.Equal(t, PhaseInEffect, ext.RevisionPhase(6))

	ext = extensionWithChange(100, 0, 0)
	require.Equal(t, PhaseUnchanged, ext.GasPricePhase(0))
	require.Equal(t, PhaseUnchanged, ext.RevisionPhase(1000))
	require.Equal(t, "pending", PhasePending.String())
}

func TestBlockExtensionScenario(t *testing.T) {
	// parent: gas price 100, revision 2, no changes
	parent := BlockExtension{StartingGasPrice: *uint256.NewInt(100), StartingRevisionNumber: 2}

	child := NewBlockExtensionFromParent(&parent, &GasPriceChange{Height: 3, Price: *uint256.NewInt(150)}, nil)
	for height, want := range map[uint64]uint64{0: 100, 2: 100, 3: 150} {
		env := child.TxEnvAt(height)
		require.Equal(t, want, env.GasPrice.Uint64(), "height %d", height)
		require.Equal(t, uint64(2), env.Revision)
	}

	grandChild := child.ToChild()
	require.Equal(t, uint64(150), grandChild.StartingGasPrice.Uint64())
	require.Nil(t, grandChild.GasPriceChange)
}

func TestBlockExtensionValidate(t *testing.T) {
	ext := BlockExtension{RevisionChange: &RevisionChange{Height: 0, Revision: 1}}
	require.ErrorIs(t, ext.Validate(), ErrChangeAtGenesisHeight)

	ext = BlockExtension{GasPriceChange: &GasPriceChange{Height: 1}}
	require.NoError(t, ext.Validate())
	cpy := ext.Copy()
	cpy.GasPriceChange.Height = 2
	require.Equal(t, uint64(1), ext.GasPriceChange.Height)
}
