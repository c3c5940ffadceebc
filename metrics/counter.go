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
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// ValueGetter reads back the current value of a collector, mostly for tests and log lines.
type ValueGetter interface {
	GetValue() float64
	GetValueUint64() uint64
}

type Counter interface {
	prometheus.Counter
	ValueGetter
	AddInt(v int)
	AddUint64(v uint64)
}

type Gauge interface {
	prometheus.Gauge
	ValueGetter
	SetUint64(v uint64)
}

// snapshot writes m into its protobuf form. Only a collector built with a bad description
// fails here, which is a programming error.
func snapshot(m prometheus.Metric) *dto.Metric {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		panic(fmt.Errorf("metrics: reading %s: %w", m.Desc(), err))
	}
	return &out
}

// counter and gauge hold float64 values; integer helpers are exact below 2^53.
type counter struct {
	prometheus.Counter
}

func (c *counter) GetValue() float64      { return snapshot(c).GetCounter().GetValue() }
func (c *counter) GetValueUint64() uint64 { return uint64(c.GetValue()) }
func (c *counter) AddInt(v int)           { c.Add(float64(v)) }
func (c *counter) AddUint64(v uint64)     { c.Add(float64(v)) }

type gauge struct {
	prometheus.Gauge
}

func (g *gauge) GetValue() float64      { return snapshot(g).GetGauge().GetValue() }
func (g *gauge) GetValueUint64() uint64 { return uint64(g.GetValue()) }
func (g *gauge) SetUint64(v uint64)     { g.Set(float64(v)) }
