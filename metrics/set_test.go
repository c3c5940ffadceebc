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

package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	name, labels, err := parseMetric(`tevm_statediff_corrected_total{kind="balance",mode="corrective"}`)
	require.NoError(t, err)
	require.Equal(t, "tevm_statediff_corrected_total", name)
	require.Equal(t, map[string]string{"kind": "balance", "mode": "corrective"}, map[string]string(labels))

	name, labels, err = parseMetric("plain")
	require.NoError(t, err)
	require.Equal(t, "plain", name)
	require.Nil(t, labels)

	for _, bad := range []string{"", "1abc", `foo{bar="baz"`, `foo{bar=baz}`, `foo{"x"="y"}`} {
		_, _, err := parseMetric(bad)
		require.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestSetCounter(t *testing.T) {
	s := NewSet()
	c, err := s.GetOrCreateCounter(`blocks_total{kind="a"}`)
	require.NoError(t, err)
	c.Inc()
	c.AddInt(2)
	c.AddUint64(3)

	same, err := s.GetOrCreateCounter(`blocks_total{kind="a"}`)
	require.NoError(t, err)
	require.Equal(t, uint64(6), same.GetValueUint64())

	other, err := s.GetOrCreateCounter(`blocks_total{kind="b"}`)
	require.NoError(t, err)
	require.Zero(t, other.GetValue())

	families, err := s.Registry().Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Len(t, families[0].GetMetric(), 2)
}

func TestSetGauge(t *testing.T) {
	s := NewSet()
	g, err := s.GetOrCreateGauge("head_block")
	require.NoError(t, err)
	g.SetUint64(42)
	require.Equal(t, uint64(42), g.GetValueUint64())

	_, err = s.GetOrCreateCounter("head_block")
	require.ErrorIs(t, err, ErrWrongType)

	same, err := s.GetOrCreateGauge("head_block")
	require.NoError(t, err)
	require.Same(t, g, same)
}

func TestSetKindMismatch(t *testing.T) {
	s := NewSet()
	c, err := s.GetOrCreateCounter("blocks_total")
	require.NoError(t, err)
	c.Inc()

	_, err = s.GetOrCreateGauge("blocks_total")
	require.ErrorIs(t, err, ErrWrongType)

	_, err = s.GetOrCreateGauge("head_block")
	require.NoError(t, err)
	_, err = s.GetOrCreateCounter("head_block")
	require.ErrorIs(t, err, ErrWrongType)
	require.Equal(t, uint64(1), c.GetValueUint64())
}
