// go-nfcv-bridge
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nfcv-bridge.
//
// go-nfcv-bridge is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nfcv-bridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nfcv-bridge; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package transport holds the retry helpers shared by the ISO15693 reader
// and the front-end drivers.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

// DefaultPollInterval is used by PollUntil when no interval is given
const DefaultPollInterval = time.Millisecond

// Attempt performs one try of a retried operation. An error wrapped with
// Again asks for another try; any other error ends the operation.
type Attempt[T any] func(ctx context.Context) (T, error)

type againError struct {
	err error
}

func (e *againError) Error() string { return e.err.Error() }
func (e *againError) Unwrap() error { return e.err }

// Again marks err as worth another attempt
func Again(err error) error {
	if err == nil {
		return nil
	}
	return &againError{err: err}
}

// Policy bounds a retried operation
type Policy struct {
	// BeforeRetry runs between attempts. An error ends the operation.
	BeforeRetry func(ctx context.Context) error
	Op          string
	Retries     int
	Backoff     time.Duration
}

// Do runs attempt until it succeeds, fails for good, or has been retried
// p.Retries times. When the retries run out the error of the last attempt
// is returned, annotated with the attempt count.
func Do[T any](ctx context.Context, p Policy, attempt Attempt[T]) (T, error) {
	var zero T
	op := p.Op
	if op == "" {
		op = "operation"
	}

	for n := 1; ; n++ {
		result, err := attempt(ctx)
		if err == nil {
			return result, nil
		}

		var again *againError
		if !errors.As(err, &again) {
			return zero, err
		}
		if n > p.Retries {
			return zero, fmt.Errorf("%s: attempt %d: %w", op, n, again.err)
		}

		if p.BeforeRetry != nil {
			if err := p.BeforeRetry(ctx); err != nil {
				return zero, err
			}
		}
		if err := sleep(ctx, p.Backoff); err != nil {
			return zero, err
		}
	}
}

// PollUntil calls ready every interval until it reports true or fails, or
// until timeout passes. Expiry is a timeout error for op.
func PollUntil(ctx context.Context, op string, timeout, interval time.Duration, ready func() (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		ok, err := ready()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
	return bridge.NewTimeoutError(op, "")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
