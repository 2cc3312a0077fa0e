// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package waker

import (
	"errors"
	"sync/atomic"

	"vawter.tech/waker/internal/safe"
	"vawter.tech/waker/internal/slot"
)

var (
	// ErrConsumed is the panic value when a [Receiver] is run more than
	// once.
	ErrConsumed = errors.New("receiver already consumed")

	// ErrTerminated is the panic value when a [Sender] is used after
	// its Terminate method has been called.
	ErrTerminated = errors.New("sender already terminated")
)

// RecoveredError is returned from [Receiver.Run] or
// [Receiver.RunMultithreaded] when the callback panics. If the panic
// value was an error, it can be retrieved with [errors.Is] or
// [errors.As].
type RecoveredError = safe.RecoveredError

// New returns a connected Sender and Receiver that share an empty
// mailbox.
func New[T any]() (*Sender[T], *Receiver[T]) {
	s := slot.New[T]()
	return newSender(s), &Receiver[T]{slot: s}
}

// A Sender delivers values to a [Receiver]. Each value sent overwrites
// any value that the Receiver has not yet taken.
//
// A Sender may be used from multiple goroutines. Use [Sender.Clone] to
// hand out independent handles whose Terminate methods are one-shot
// per handle.
type Sender[T any] struct {
	done       chan struct{} // Closed by Terminate.
	slot       *slot.Slot[T]
	terminated atomic.Bool
}

func newSender[T any](s *slot.Slot[T]) *Sender[T] {
	return &Sender[T]{
		done: make(chan struct{}),
		slot: s,
	}
}

// Clone returns a new handle to the same mailbox. The clone may send
// or terminate independently of the receiver. Cloning a terminated
// Sender panics with [ErrTerminated].
func (s *Sender[T]) Clone() *Sender[T] {
	if s.terminated.Load() {
		panic(ErrTerminated)
	}
	return newSender(s.slot)
}

// Send replaces any pending value and wakes the [Receiver]. It never
// blocks. Sending on a terminated Sender panics with [ErrTerminated].
//
// A single handle must not Send concurrently with its own Terminate: a
// racing Send may overwrite the termination request. Use [Sender.Clone]
// to send and terminate from different goroutines.
func (s *Sender[T]) Send(val T) {
	if s.terminated.Load() {
		panic(ErrTerminated)
	}
	s.slot.Put(&slot.Message[T]{Value: val})
}

// Terminate causes the [Receiver] to stop once it observes the request.
// Any pending value is discarded. Terminate may only be called once per
// handle; subsequent calls panic with [ErrTerminated].
//
// Sends from other clones may race with Terminate. Whichever write
// happens last is the one the Receiver will observe.
func (s *Sender[T]) Terminate() {
	if !s.tryTerminate() {
		panic(ErrTerminated)
	}
}

// tryTerminate returns false if the handle was already terminated.
func (s *Sender[T]) tryTerminate() bool {
	if !s.terminated.CompareAndSwap(false, true) {
		return false
	}
	close(s.done)
	s.slot.Put(&slot.Message[T]{Terminate: true})
	return true
}

// A Receiver consumes values from a [Sender] by way of [Receiver.Run]
// or [Receiver.RunMultithreaded]. A Receiver may only be run once.
type Receiver[T any] struct {
	consumed atomic.Bool
	slot     *slot.Slot[T]
}

// consume panics if the Receiver has already been run.
func (r *Receiver[T]) consume() {
	if !r.consumed.CompareAndSwap(false, true) {
		panic(ErrConsumed)
	}
}
