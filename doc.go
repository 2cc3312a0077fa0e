// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package waker delivers the latest of a stream of values to a
// long-running, interruptible callback.
//
// The package targets producers that emit bursty updates, such as
// file-change notifications or configuration reloads, where the
// consumer performs an expensive reaction that is only meaningful for
// the most recent update. Values are never queued: a [Sender] writes
// into a single-value mailbox, overwriting anything that the
// [Receiver] has not yet taken.
//
//	tx, rx := waker.New[string]()
//	go func() {
//	    for path := range changes {
//	        tx.Send(path)
//	    }
//	    tx.Terminate()
//	}()
//	err := rx.Run(ctx, func(path string, intr *waker.Interrupter) {
//	    for step := range work(path) {
//	        if intr.Interrupted() {
//	            return // A newer path is waiting.
//	        }
//	        step()
//	    }
//	})
//
// # Sending
//
// [Sender.Send] never blocks. [Sender.Terminate] asks the Receiver to
// stop and discards any value it has not yet taken. Terminate is a
// one-shot operation: reusing a terminated handle panics with
// [ErrTerminated]. [Sender.Clone] creates additional handles which
// share the mailbox but may be terminated independently. The
// Receiver will only stop once it observes a termination request, so
// callers must ensure that Terminate is eventually called or that the
// context passed to the Receiver is canceled.
//
// [TerminateOnReceive] terminates a Sender when a channel, such as one
// passed to [os/signal.Notify], yields a value.
//
// # Receiving
//
// [Receiver.Run] blocks the calling goroutine, invoking the callback
// with each value that it takes from the mailbox. A Receiver may only
// be run once. The run loop may be configured with [RunOption] values:
//
//   - [WithHoldoff] debounces bursts, delivering a value only after a
//     quiet period has elapsed. A termination request observed during
//     the holdoff period discards the held value.
//   - [WithMaxRate] limits the rate of callback invocations. Values
//     sent while waiting replace the value to be delivered.
//   - [WithWakeInterval] bounds how long an idle Receiver waits before
//     re-checking the mailbox.
//   - [WithName] and [WithLogger] control the [runtime/trace] task name
//     and debug logging.
//
// # Interruption
//
// Cancellation is cooperative. The callback's [Interrupter] reports
// whether a newer value or a termination request is pending, without
// consuming it. The result latches, so polling it in a tight loop is
// cheap once it has returned true.
//
// [Receiver.RunMultithreaded] passes a [MultiInterrupter] instead. Its
// latch is shared by every [MultiInterrupter.Clone], making it suitable
// for fanning work out to several goroutines. The
// [vawter.tech/waker/fanout] package provides bounded worker pools
// that stop taking new work once interrupted.
//
// # Panic recovery
//
// A panic within the callback stops the run loop and is returned as a
// [RecoveredError] that captures the stack at which the panic
// occurred. The mailbox lock is never held while the callback runs, so
// Senders are unaffected.
package waker
