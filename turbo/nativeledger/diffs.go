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

package nativeledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	jsoniter "github.com/json-iterator/go"

	"github.com/telosnetwork/tevm-erigon/core/statediff"
	"github.com/telosnetwork/tevm-erigon/core/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrMalformed marks diffs that can never be used; fetching them again does not help.
	ErrMalformed = errors.New("malformed native block diffs")
	// ErrTooManyChanges is returned when a block reports more than one change of the same value.
	ErrTooManyChanges = errors.New("more than one change event per block")
)

// BlockDiffs is everything the native ledger reports for one EVM block.
type BlockDiffs struct {
	Number                      uint64                     `json:"number"`
	Accounts                    []statediff.AccountDiffRow `json:"statediffs_account"`
	Storage                     []statediff.StorageDiffRow `json:"statediffs_accountstate"`
	GasPriceChanges             []GasPriceEvent            `json:"gasprice_changes,omitempty"`
	RevisionChanges             []RevisionEvent            `json:"revision_changes,omitempty"`
	NewAddressesUsingCreate     []IndexedAddress           `json:"new_addresses_using_create,omitempty"`
	NewAddressesUsingOpenWallet []IndexedAddress           `json:"new_addresses_using_openwallet,omitempty"`
}

// DecodeBlockDiffs parses the JSON form of BlockDiffs.
func DecodeBlockDiffs(data []byte) (*BlockDiffs, error) {
	var d BlockDiffs
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &d, nil
}

func (d *BlockDiffs) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// GasPriceChange returns the block's gas price change, nil when there is none.
func (d *BlockDiffs) GasPriceChange() (*types.GasPriceChange, error) {
	switch len(d.GasPriceChanges) {
	case 0:
		return nil, nil
	case 1:
		e := d.GasPriceChanges[0]
		return &types.GasPriceChange{Height: e.Height, Price: e.Price}, nil
	default:
		return nil, fmt.Errorf("%w: %d gas price changes in block %d", ErrTooManyChanges, len(d.GasPriceChanges), d.Number)
	}
}

// RevisionChange returns the block's revision change, nil when there is none.
func (d *BlockDiffs) RevisionChange() (*types.RevisionChange, error) {
	switch len(d.RevisionChanges) {
	case 0:
		return nil, nil
	case 1:
		e := d.RevisionChanges[0]
		return &types.RevisionChange{Height: e.Height, Revision: e.Revision}, nil
	default:
		return nil, fmt.Errorf("%w: %d revision changes in block %d", ErrTooManyChanges, len(d.RevisionChanges), d.Number)
	}
}

// OpenWallet returns the addresses materialized by open-wallet side effects.
func (d *BlockDiffs) OpenWallet() statediff.AddressSet {
	s := make(statediff.AddressSet, len(d.NewAddressesUsingOpenWallet))
	for _, a := range d.NewAddressesUsingOpenWallet {
		s.Add(a.Address())
	}
	return s
}

// GasPriceEvent is the JSON pair [height, price].
type GasPriceEvent struct {
	Height uint64
	Price  uint256.Int
}

func (e GasPriceEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Height, &e.Price})
}

func (e *GasPriceEvent) UnmarshalJSON(data []byte) error {
	return decodePair(data, &e.Height, &e.Price)
}

// RevisionEvent is the JSON pair [height, revision].
type RevisionEvent struct {
	Height   uint64
	Revision uint64
}

func (e RevisionEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Height, e.Revision})
}

func (e *RevisionEvent) UnmarshalJSON(data []byte) error {
	return decodePair(data, &e.Height, &e.Revision)
}

// IndexedAddress is the JSON pair [index, word]; the address is the low 20 bytes of the word.
type IndexedAddress struct {
	Index uint64
	Word  uint256.Int
}

func NewIndexedAddress(index uint64, address common.Address) IndexedAddress {
	var word uint256.Int
	word.SetBytes20(address[:])
	return IndexedAddress{Index: index, Word: word}
}

func (a *IndexedAddress) Address() common.Address {
	return a.Word.Bytes20()
}

func (a IndexedAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{a.Index, &a.Word})
}

func (a *IndexedAddress) UnmarshalJSON(data []byte) error {
	return decodePair(data, &a.Index, &a.Word)
}

func decodePair(data []byte, first, second any) error {
	var pair []jsoniter.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected a pair, got %d items", len(pair))
	}
	if err := json.Unmarshal(pair[0], first); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], second)
}
