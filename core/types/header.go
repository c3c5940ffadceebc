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

// Package types contains data types related to Ethereum consensus.
package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/telosnetwork/tevm-erigon/crypto"
)

var (
	EmptyRootHash  = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	EmptyUncleHash = common.HexToHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
)

const BloomByteLength = 256

// Bloom represents a 2048 bit bloom filter.
type Bloom [BloomByteLength]byte

func (b Bloom) MarshalText() ([]byte, error) {
	return hexutil.Bytes(b[:]).MarshalText()
}

func (b *Bloom) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Bloom", input, b[:])
}

// A BlockNonce is a 64-bit hash which proves (combined with the
// mix-hash) that a sufficient amount of computation has been carried
// out on a block.
type BlockNonce [8]byte

// EncodeNonce converts the given integer to a block nonce.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	binary.BigEndian.PutUint64(n[:], i)
	return n
}

// Uint64 returns the integer value of a block nonce.
func (n BlockNonce) Uint64() uint64 {
	return binary.BigEndian.Uint64(n[:])
}

func (n BlockNonce) MarshalText() ([]byte, error) {
	return hexutil.Bytes(n[:]).MarshalText()
}

func (n *BlockNonce) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("BlockNonce", input, n[:])
}

// BlockNumHash identifies a block by number and hash.
type BlockNumHash struct {
	Number uint64
	Hash   common.Hash
}

// Header represents a block header of the EVM chain mirrored from the native ledger.
// Extension is carried alongside the consensus fields: it is persisted by the storage
// encoding and is never part of the hash encoding.
type Header struct {
	ParentHash  common.Hash    `json:"parentHash"`
	UncleHash   common.Hash    `json:"sha3Uncles"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"`
	TxHash      common.Hash    `json:"transactionsRoot"`
	ReceiptHash common.Hash    `json:"receiptsRoot"`
	Bloom       Bloom          `json:"logsBloom"`
	Difficulty  *big.Int       `json:"difficulty"`
	Number      *big.Int       `json:"number"`
	GasLimit    uint64         `json:"gasLimit"`
	GasUsed     uint64         `json:"gasUsed"`
	Time        uint64         `json:"timestamp"`
	Extra       []byte         `json:"extraData"`
	MixDigest   common.Hash    `json:"mixHash"`
	Nonce       BlockNonce     `json:"nonce"`

	BaseFee               *big.Int     `json:"baseFeePerGas,omitempty"`   // EIP-1559
	WithdrawalsHash       *common.Hash `json:"withdrawalsRoot,omitempty"` // EIP-4895
	BlobGasUsed           *uint64      `json:"blobGasUsed,omitempty"`     // EIP-4844
	ExcessBlobGas         *uint64      `json:"excessBlobGas,omitempty"`
	ParentBeaconBlockRoot *common.Hash `json:"parentBeaconBlockRoot,omitempty"` // EIP-4788
	RequestsHash          *common.Hash `json:"requestsHash,omitempty"`          // EIP-7685

	Extension BlockExtension `json:"telosBlockExtension"`
}

// NumberU64 returns the block number as uint64; Number must fit.
func (h *Header) NumberU64() uint64 {
	if h.Number == nil {
		return 0
	}
	return h.Number.Uint64()
}

// Hash returns the keccak256 of the header's hash encoding.
func (h *Header) Hash() common.Hash {
	return crypto.Keccak256Hash(h.EncodeHashRLP())
}

var headerSize = common.StorageSize(reflect.TypeOf(Header{}).Size())

// Size returns the approximate memory used by all internal contents.
func (h *Header) Size() common.StorageSize {
	s := headerSize + common.StorageSize(len(h.Extra))
	if h.Difficulty != nil {
		s += common.StorageSize(h.Difficulty.BitLen() / 8)
	}
	if h.Number != nil {
		s += common.StorageSize(h.Number.BitLen() / 8)
	}
	if h.BaseFee != nil {
		s += common.StorageSize(h.BaseFee.BitLen() / 8)
	}
	return s
}

var ErrHeaderSanity = errors.New("header sanity check")

// SanityCheck checks a few basic things -- these checks are way beyond what
// any 'sane' production values should hold, and can mainly be used to prevent
// that the unbounded fields are stuffed with junk data to add processing
// overhead
func (h *Header) SanityCheck() error {
	if h.Number == nil || h.Difficulty == nil {
		return fmt.Errorf("%w: missing number or difficulty", ErrHeaderSanity)
	}
	if !h.Number.IsUint64() {
		return fmt.Errorf("%w: too large block number: bitlen %d", ErrHeaderSanity, h.Number.BitLen())
	}
	if diffLen := h.Difficulty.BitLen(); diffLen > 80 {
		return fmt.Errorf("%w: too large block difficulty: bitlen %d", ErrHeaderSanity, diffLen)
	}
	if eLen := len(h.Extra); eLen > 100*1024 {
		return fmt.Errorf("%w: too large block extradata: size %d", ErrHeaderSanity, eLen)
	}
	if h.BaseFee != nil {
		if bfLen := h.BaseFee.BitLen(); bfLen > 256 {
			return fmt.Errorf("%w: too large base fee: bitlen %d", ErrHeaderSanity, bfLen)
		}
	}
	if err := h.Extension.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrHeaderSanity, err)
	}
	return nil
}

// IsEmpty reports whether the block carries no transactions, ommers or withdrawals.
func (h *Header) IsEmpty() bool {
	empty := h.TxHash == EmptyRootHash && h.UncleHash == EmptyUncleHash
	if h.WithdrawalsHash != nil {
		return empty && *h.WithdrawalsHash == EmptyRootHash
	}
	return empty
}

// ParentNumHash returns the number and hash of the parent block.
func (h *Header) ParentNumHash() BlockNumHash {
	n := h.NumberU64()
	if n > 0 {
		n--
	}
	return BlockNumHash{Number: n, Hash: h.ParentHash}
}

// Copy creates a deep copy of the header.
func (h *Header) Copy() *Header {
	cpy := *h
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cpy.Number = new(big.Int).Set(h.Number)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	if h.BaseFee != nil {
		cpy.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		v := *h.WithdrawalsHash
		cpy.WithdrawalsHash = &v
	}
	if h.BlobGasUsed != nil {
		v := *h.BlobGasUsed
		cpy.BlobGasUsed = &v
	}
	if h.ExcessBlobGas != nil {
		v := *h.ExcessBlobGas
		cpy.ExcessBlobGas = &v
	}
	if h.ParentBeaconBlockRoot != nil {
		v := *h.ParentBeaconBlockRoot
		cpy.ParentBeaconBlockRoot = &v
	}
	if h.RequestsHash != nil {
		v := *h.RequestsHash
		cpy.RequestsHash = &v
	}
	cpy.Extension = h.Extension.Copy()
	return &cpy
}

// NewHeaderWithExtension copies h and attaches the extension derived from the parent's
// extension and the change events reported for this block.
func NewHeaderWithExtension(h *Header, parent *BlockExtension, gasPriceChange *GasPriceChange, revisionChange *RevisionChange) *Header {
	cpy := h.Copy()
	cpy.Extension = NewBlockExtensionFromParent(parent, gasPriceChange, revisionChange)
	return cpy
}
