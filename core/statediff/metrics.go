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

package statediff

import (
	"fmt"

	"github.com/telosnetwork/tevm-erigon/metrics"
)

var (
	blocksConsistent = metrics.GetOrCreateCounter(`tevm_statediff_blocks_total{outcome="consistent"}`)
	blocksCorrected  = metrics.GetOrCreateCounter(`tevm_statediff_blocks_total{outcome="corrected"}`)
	blocksDiverged   = metrics.GetOrCreateCounter(`tevm_statediff_blocks_total{outcome="diverged"}`)
)

func correctedCounter(kind MismatchKind) metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`tevm_statediff_corrected_total{kind=%q}`, kind.String()))
}
