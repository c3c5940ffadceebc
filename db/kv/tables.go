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

/*
PlainState logical layout:

	Contains Accounts:
	  key - address (unhashed)
	  value - account encoded for storage
	Contains Storage:
	  key - address (unhashed) + incarnation + storage key (unhashed)
	  value - storage value(common.hash)
*/
const (
	PlainState = "PlainState"

	// code hash -> contract code
	Code = "Code"

	// address -> incarnation the next contract created at this address must use.
	// Written on account deletion so storage of the deleted contract is never visible again.
	IncarnationMap = "IncarnationMap"

	HeaderNumber    = "HeaderNumber"    // header_hash -> header_num_u64
	HeaderCanonical = "CanonicalHeader" // block_num_u64 -> header hash
	Headers         = "Header"          // block_num_u64 + hash -> header (storage encoding)

	// DatabaseInfo is used to store information about data layout.
	DatabaseInfo = "DbInfo"
)

// Keys
var (
	HeadHeaderKey = []byte("LastHeader")
)

// ChaindataTables - list of all buckets. App will panic if some bucket is not in this list.
var ChaindataTables = []string{
	PlainState,
	Code,
	IncarnationMap,
	HeaderNumber,
	HeaderCanonical,
	Headers,
	DatabaseInfo,
}

var chaindataTablesSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(ChaindataTables))
	for _, t := range ChaindataTables {
		m[t] = struct{}{}
	}
	return m
}()

// IsKnownTable reports whether name is one of ChaindataTables.
func IsKnownTable(name string) bool {
	_, ok := chaindataTablesSet[name]
	return ok
}
