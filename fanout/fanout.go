// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package fanout spreads the work of a single callback invocation
// across a bounded number of goroutines.
//
// The functions in this package accept a [waker.Checker], usually the
// [waker.MultiInterrupter] passed to [waker.Receiver.RunMultithreaded].
// Each worker polls its own clone of the Checker before taking the
// next item and stops taking items once interrupted. Work that is
// already in progress is not preempted; callbacks may poll the Checker
// themselves to exit early.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"vawter.tech/waker"
	"vawter.tech/waker/internal/safe"
)

// ErrInterrupted is returned, possibly joined with other errors, if
// any worker stopped because the [waker.Checker] reported an
// interruption.
var ErrInterrupted = errors.New("interrupted")

// ForEach concurrently executes the callback for each item in the
// sequence using at most numWorkers goroutines. It returns once all
// workers have exited. A nil Checker is never interrupted.
//
// Errors returned by the callback, including recovered panics, are
// prefixed with the item's index and joined into the return value
// without stopping the other workers.
func ForEach[T any](
	ctx context.Context,
	intr waker.Checker,
	items iter.Seq[T],
	numWorkers int,
	fn func(ctx context.Context, idx int, item T) error,
) error {
	next, stop := iter.Pull(items)
	return run(ctx, intr, numWorkers, stop, func() (func(context.Context, int) error, bool) {
		item, ok := next()
		return func(ctx context.Context, idx int) error {
			return fn(ctx, idx, item)
		}, ok
	})
}

// ForEach2 is a pairwise version of [ForEach].
func ForEach2[K, V any](
	ctx context.Context,
	intr waker.Checker,
	items iter.Seq2[K, V],
	numWorkers int,
	fn func(ctx context.Context, idx int, k K, v V) error,
) error {
	next, stop := iter.Pull2(items)
	return run(ctx, intr, numWorkers, stop, func() (func(context.Context, int) error, bool) {
		k, v, ok := next()
		return func(ctx context.Context, idx int) error {
			return fn(ctx, idx, k, v)
		}, ok
	})
}

// run executes the tasks returned by pull. The pull and stop functions
// are never called concurrently.
func run(
	ctx context.Context,
	intr waker.Checker,
	numWorkers int,
	stop func(),
	pull func() (func(context.Context, int) error, bool),
) error {
	if numWorkers <= 0 {
		panic(errors.New("numWorkers must be greater than zero"))
	}

	var nextMu sync.Mutex
	idx := 0
	defer func() {
		nextMu.Lock()
		defer nextMu.Unlock()
		stop()
	}()

	var errMu sync.Mutex
	var errs []error
	var interrupted atomic.Bool

	if intr == nil {
		intr = never{}
	}
	// Arbitrary Checkers may not be safe for concurrent use.
	multi, isMulti := intr.(waker.MultiInterrupter)
	if !isMulti {
		intr = &locked{Checker: intr}
	}

	var g errgroup.Group
	for range numWorkers {
		check := intr
		if isMulti {
			check = multi.Clone()
		}
		g.Go(func() error {
			for {
				if check.Interrupted() {
					interrupted.Store(true)
					return nil
				}
				if ctx.Err() != nil {
					return context.Cause(ctx)
				}

				// Collect the next task to execute.
				nextMu.Lock()
				count := idx
				idx++
				task, ok := pull()
				nextMu.Unlock()

				if !ok {
					// Clean exit.
					return nil
				}
				if err := safe.CallE(func() error {
					return task(ctx, count)
				}); err != nil {
					errMu.Lock()
					errs = append(errs, fmt.Errorf("index %d: %w", count, err))
					errMu.Unlock()
				}
			}
		})
	}

	errs = append(errs, g.Wait())
	if interrupted.Load() {
		errs = append(errs, ErrInterrupted)
	}
	return errors.Join(errs...)
}

// locked serializes calls to a Checker.
type locked struct {
	mu sync.Mutex
	waker.Checker
}

func (l *locked) Interrupted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Checker.Interrupted()
}

type never struct{}

func (never) Interrupted() bool { return false }
