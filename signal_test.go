// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package waker_test

import (
	"context"
	"os"
	"os/signal"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"vawter.tech/waker"
)

func ExampleTerminateOnReceive() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	tx, rx := waker.New[string]()
	waker.TerminateOnReceive(tx, signals)

	tx.Send("config.yaml")
	_ = rx.Run(context.Background(), func(path string, intr *waker.Interrupter) {
		// Reload configuration.
	})
}

func TestTerminateOnReceiveClosed(t *testing.T) {
	r := require.New(t)
	tx, rx := waker.New[int]()

	ch := make(chan struct{})
	close(ch)
	waker.TerminateOnReceive(tx, ch)

	done := runAsync(func() error {
		return rx.Run(t.Context(), func(int, *waker.Interrupter) {})
	})
	r.NoError(requireReturns(r, done))
	r.PanicsWithValue(waker.ErrTerminated, func() { tx.Send(1) })
}

func TestTerminateOnReceiveValue(t *testing.T) {
	r := require.New(t)
	tx, rx := waker.New[int]()

	ch := make(chan os.Signal, 1)
	waker.TerminateOnReceive(tx, ch)

	done := runAsync(func() error {
		return rx.Run(t.Context(), func(int, *waker.Interrupter) {})
	})
	tx.Send(1)
	time.Sleep(10 * time.Millisecond)
	ch <- os.Interrupt
	r.NoError(requireReturns(r, done))
}

func TestTerminateOnReceiveTerminatedElsewhere(t *testing.T) {
	r := require.New(t)
	tx, _ := waker.New[int]()

	ch := make(chan struct{}, 1)
	waker.TerminateOnReceive(tx, ch)
	tx.Terminate()

	// Must not panic in the background goroutine.
	ch <- struct{}{}
	time.Sleep(10 * time.Millisecond)
	r.PanicsWithValue(waker.ErrTerminated, func() { tx.Terminate() })
}
