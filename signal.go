// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package waker

// TerminateOnReceive will call [Sender.Terminate] when a value is
// received from the channel or if the channel is closed. It can be
// used, for example, with [os/signal.Notify]. The background goroutine
// exits early if the Sender is terminated by other means, and nothing
// happens if the Sender has already been terminated.
func TerminateOnReceive[T, S any](s *Sender[T], ch <-chan S) {
	go func() {
		select {
		case <-ch:
			// We can ignore the result since it would mean that the
			// handle was terminated elsewhere, rendering this moot.
			_ = s.tryTerminate()
		case <-s.done:
		}
	}()
}
