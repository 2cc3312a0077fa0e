// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package slot contains the single-message mailbox shared by a sender
// and a receiver.
package slot

import (
	"context"
	"sync"
	"time"
)

// A Message is either a value or a request to terminate.
type Message[T any] struct {
	Value     T
	Terminate bool
}

// A Peeker reports whether a message is pending without consuming it.
// It allows interruption checks to be independent of the message type.
type Peeker interface {
	Pending() bool
}

// A Slot holds at most one pending message. Writes always overwrite an
// unconsumed message.
type Slot[T any] struct {
	// The wake channel has a single-token buffer, so a write that lands
	// between a failed Take and the subsequent Wait is never lost.
	wake chan struct{}

	mu struct {
		sync.Mutex
		pending *Message[T] // Nil if nothing is pending.
	}
}

var _ Peeker = (*Slot[any])(nil)

// New returns an empty Slot.
func New[T any]() *Slot[T] {
	return &Slot[T]{wake: make(chan struct{}, 1)}
}

// Pending implements [Peeker].
func (s *Slot[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.pending != nil
}

// Put replaces any pending message and wakes the receiver. Put never
// blocks.
func (s *Slot[T]) Put(msg *Message[T]) {
	s.put(msg)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// put is a minimal critical section.
func (s *Slot[T]) put(msg *Message[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.pending = msg
}

// Take removes and returns the pending message, if any.
func (s *Slot[T]) Take() (*Message[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := s.mu.pending
	s.mu.pending = nil
	return ret, ret != nil
}

// Await blocks until a message can be taken from the Slot or the
// context is done. A done context takes precedence over a pending
// message, which is left in place. If interval is positive, the Slot is
// re-checked at least that often, regardless of wakeups.
func (s *Slot[T]) Await(ctx context.Context, interval time.Duration) (*Message[T], error) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		if msg, ok := s.Take(); ok {
			return msg, nil
		}
		select {
		case <-s.wake:
		case <-tick:
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}
}
