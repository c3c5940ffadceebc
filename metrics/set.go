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
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrInvalidName = errors.New("invalid metric name")
	ErrWrongType   = errors.New("metric registered with a different type")

	metricNameRe = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelRe      = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)="((?:[^"\\]|\\.)*)"$`)
)

// Set is a group of metrics registered on one prometheus registry, keyed by their
// full name including labels. Entries hold the wrapped *counter or *gauge so lookups
// check the kind they were created with; a prometheus Gauge also satisfies Counter.
type Set struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	metrics  map[string]any
}

func NewSet() *Set {
	return &Set{
		registry: prometheus.NewRegistry(),
		metrics:  map[string]any{},
	}
}

var defaultSet = NewSet()

// DefaultRegistry is the registry behind the package-level constructors.
func DefaultRegistry() *prometheus.Registry { return defaultSet.registry }

func (s *Set) Registry() *prometheus.Registry { return s.registry }

// parseMetric splits `foo{bar="baz",aaa="b"}` into the metric name and its const labels.
func parseMetric(s string) (string, prometheus.Labels, error) {
	name, rest, hasLabels := strings.Cut(s, "{")
	if !metricNameRe.MatchString(name) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	if !hasLabels {
		return name, nil, nil
	}
	body, ok := strings.CutSuffix(rest, "}")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing closing brace in %q", ErrInvalidName, s)
	}
	labels := prometheus.Labels{}
	if body == "" {
		return name, labels, nil
	}
	for _, pair := range strings.Split(body, ",") {
		m := labelRe.FindStringSubmatch(pair)
		if m == nil {
			return "", nil, fmt.Errorf("%w: bad label %q in %q", ErrInvalidName, pair, s)
		}
		labels[m[1]] = m[2]
	}
	return name, labels, nil
}

func (s *Set) GetOrCreateCounter(name string, help ...string) (Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.metrics[name]; ok {
		c, ok := m.(*counter)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWrongType, name)
		}
		return c, nil
	}
	metricName, labels, err := parseMetric(name)
	if err != nil {
		return nil, err
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        metricName,
		Help:        strings.Join(help, " "),
		ConstLabels: labels,
	})
	if err := s.registry.Register(c); err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	wrapped := &counter{c}
	s.metrics[name] = wrapped
	return wrapped, nil
}

func (s *Set) GetOrCreateGauge(name string, help ...string) (Gauge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.metrics[name]; ok {
		g, ok := m.(*gauge)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWrongType, name)
		}
		return g, nil
	}
	metricName, labels, err := parseMetric(name)
	if err != nil {
		return nil, err
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        metricName,
		Help:        strings.Join(help, " "),
		ConstLabels: labels,
	})
	if err := s.registry.Register(g); err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	wrapped := &gauge{g}
	s.metrics[name] = wrapped
	return wrapped, nil
}

// GetOrCreateCounter returns the registered counter with the given name or creates it.
//
// name must be a valid Prometheus-compatible metric with possible labels.
// For instance,
//
//   - foo
//   - foo{bar="baz"}
//   - foo{bar="baz",aaa="b"}
//
// The returned counter is safe to use from concurrent goroutines.
func GetOrCreateCounter(name string, help ...string) Counter {
	c, err := defaultSet.GetOrCreateCounter(name, help...)
	if err != nil {
		panic(fmt.Errorf("could not get or create new counter: %w", err))
	}
	return c
}

// GetOrCreateGauge is GetOrCreateCounter for gauges.
func GetOrCreateGauge(name string, help ...string) Gauge {
	g, err := defaultSet.GetOrCreateGauge(name, help...)
	if err != nil {
		panic(fmt.Errorf("could not get or create new gauge: %w", err))
	}
	return g
}
