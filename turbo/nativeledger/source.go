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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ledgerwatch/log/v3"
)

var (
	ErrNotFound       = errors.New("native block diffs not found")
	ErrFetchExhausted = errors.New("native ledger fetch retries exhausted")
)

// Source supplies the native ledger's view of an EVM block.
type Source interface {
	FetchBlockDiffs(ctx context.Context, number uint64) (*BlockDiffs, error)
}

// FileSource replays diffs stored as <dir>/<number>.json.
type FileSource struct {
	Dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (s *FileSource) path(number uint64) string {
	return filepath.Join(s.Dir, strconv.FormatUint(number, 10)+".json")
}

func (s *FileSource) FetchBlockDiffs(ctx context.Context, number uint64) (*BlockDiffs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(number))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: block %d", ErrNotFound, number)
		}
		return nil, err
	}
	d, err := DecodeBlockDiffs(data)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", number, err)
	}
	if d.Number != number {
		return nil, fmt.Errorf("%w: %s holds block %d", ErrMalformed, s.path(number), d.Number)
	}
	return d, nil
}

// WriteBlockDiffs stores d where FetchBlockDiffs will find it.
func (s *FileSource) WriteBlockDiffs(d *BlockDiffs) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path(d.Number), data, 0o644)
}

// RetryPolicy is an exponential backoff without jitter. Attempts counts calls, not retries.
type RetryPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Attempts   uint64
}

// DefaultRetryPolicy waits 2ms doubling up to 4096ms, for 12 calls in total.
var DefaultRetryPolicy = RetryPolicy{
	Initial:    2 * time.Millisecond,
	Max:        4096 * time.Millisecond,
	Multiplier: 2,
	Attempts:   12,
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	var retries uint64
	if p.Attempts > 0 {
		retries = p.Attempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// RetryingSource retries transient fetch failures. Malformed diffs and context errors are
// returned at once.
type RetryingSource struct {
	source Source
	policy RetryPolicy
	logger log.Logger
}

func NewRetryingSource(source Source, policy RetryPolicy, logger log.Logger) *RetryingSource {
	return &RetryingSource{source: source, policy: policy, logger: logger}
}

func (s *RetryingSource) FetchBlockDiffs(ctx context.Context, number uint64) (*BlockDiffs, error) {
	var attempt int
	d, err := backoff.RetryNotifyWithData(func() (*BlockDiffs, error) {
		attempt++
		d, err := s.source.FetchBlockDiffs(ctx, number)
		if err == nil {
			return d, nil
		}
		if errors.Is(err, ErrMalformed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}, s.policy.backOff(ctx), func(err error, wait time.Duration) {
		s.logger.Debug("[nativeledger] Retrying fetch", "block", number, "attempt", attempt, "wait", wait, "err", err)
	})
	if err == nil {
		return d, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, ErrMalformed) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: block %d after %d attempts: %w", ErrFetchExhausted, number, attempt, err)
}
