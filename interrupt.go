// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package waker

import (
	"context"
	"sync/atomic"

	"vawter.tech/waker/internal/slot"
)

// A Checker reports whether the work in progress has been superseded.
// Both [Interrupter] and [MultiInterrupter] implement Checker.
type Checker interface {
	// Interrupted returns true if a newer value or a termination
	// request is pending. Once Interrupted returns true, it will
	// continue to return true.
	Interrupted() bool
}

var (
	_ Checker = (*Interrupter)(nil)
	_ Checker = MultiInterrupter{}
)

// An Interrupter is passed to the callback given to [Receiver.Run]. It
// is valid only for the duration of that callback invocation and is
// not safe for concurrent use; see [MultiInterrupter] for a shareable
// version.
type Interrupter struct {
	ctx     context.Context
	latched bool
	peek    slot.Peeker
}

// Interrupted returns true if a newer value has been sent, if a
// termination request is pending, or if the run's context has been
// canceled. The result latches: once true, all subsequent calls return
// true without acquiring any locks. An Interrupter that outlives its
// callback invocation always returns true.
func (i *Interrupter) Interrupted() bool {
	if i.latched {
		return true
	}
	// The pending message will not be taken until the callback returns.
	if i.ctx.Err() != nil || i.peek.Pending() {
		i.latched = true
	}
	return i.latched
}

func (i *Interrupter) expire() { i.latched = true }

// A MultiInterrupter is passed to the callback given to
// [Receiver.RunMultithreaded]. It has the same latching behavior as an
// [Interrupter], except that the latch is shared by every clone. The
// first clone to observe a pending message makes the interruption
// visible to all other clones without them needing to acquire a lock.
//
// A MultiInterrupter is safe for concurrent use. It is valid only for
// the duration of the callback invocation; afterward, all clones report
// true.
type MultiInterrupter struct {
	shared *multiState
}

type multiState struct {
	ctx     context.Context
	latched atomic.Bool
	peek    slot.Peeker
}

func newMultiInterrupter(ctx context.Context, peek slot.Peeker) MultiInterrupter {
	return MultiInterrupter{&multiState{ctx: ctx, peek: peek}}
}

// Clone returns a MultiInterrupter that shares its latch with the
// receiver. Clones are intended to be handed to worker goroutines.
func (m MultiInterrupter) Clone() MultiInterrupter {
	return MultiInterrupter{m.shared}
}

// Interrupted returns true if a newer value has been sent, if a
// termination request is pending, or if the run's context has been
// canceled. Once any clone returns true, all clones will return true.
func (m MultiInterrupter) Interrupted() bool {
	s := m.shared
	if s.latched.Load() {
		return true
	}
	if s.ctx.Err() != nil || s.peek.Pending() {
		s.latched.Store(true)
		return true
	}
	return false
}

func (m MultiInterrupter) expire() { m.shared.latched.Store(true) }
