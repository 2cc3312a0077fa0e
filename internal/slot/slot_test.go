// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package slot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPutOverwrites(t *testing.T) {
	r := require.New(t)

	s := New[int]()
	r.False(s.Pending())

	s.Put(&Message[int]{Value: 1})
	s.Put(&Message[int]{Value: 2})
	s.Put(&Message[int]{Value: 3})
	r.True(s.Pending())

	msg, ok := s.Take()
	r.True(ok)
	r.Equal(3, msg.Value)
	r.False(msg.Terminate)

	// Slot is empty after a take.
	r.False(s.Pending())
	_, ok = s.Take()
	r.False(ok)
}

func TestTerminateOverwritesValue(t *testing.T) {
	r := require.New(t)

	s := New[string]()
	s.Put(&Message[string]{Value: "hello"})
	s.Put(&Message[string]{Terminate: true})

	msg, ok := s.Take()
	r.True(ok)
	r.True(msg.Terminate)
	r.Zero(msg.Value)
}

func TestPendingDoesNotConsume(t *testing.T) {
	r := require.New(t)

	s := New[int]()
	s.Put(&Message[int]{Value: 42})
	for range 10 {
		r.True(s.Pending())
	}
	msg, ok := s.Take()
	r.True(ok)
	r.Equal(42, msg.Value)
}

func TestAwaitAlreadyPending(t *testing.T) {
	r := require.New(t)

	s := New[int]()
	s.Put(&Message[int]{Value: 1})

	msg, err := s.Await(t.Context(), 0)
	r.NoError(err)
	r.Equal(1, msg.Value)
}

func TestAwaitWakeup(t *testing.T) {
	r := require.New(t)

	s := New[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Put(&Message[int]{Value: 99})
	}()

	msg, err := s.Await(t.Context(), 0)
	r.NoError(err)
	r.Equal(99, msg.Value)
}

// A wake token left over from a previous Put must not cause Await to
// return without a message.
func TestAwaitSpuriousWake(t *testing.T) {
	r := require.New(t)

	s := New[int]()
	s.Put(&Message[int]{Value: 1})
	_, ok := s.Take()
	r.True(ok)

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Put(&Message[int]{Value: 2})
	}()

	msg, err := s.Await(t.Context(), 0)
	r.NoError(err)
	r.Equal(2, msg.Value)
}

func TestAwaitInterval(t *testing.T) {
	r := require.New(t)

	s := New[int]()
	// Bypass the wakeup channel to show that the interval alone is
	// sufficient to find the message.
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.put(&Message[int]{Value: 7})
	}()

	msg, err := s.Await(t.Context(), time.Millisecond)
	r.NoError(err)
	r.Equal(7, msg.Value)
}

func TestAwaitContext(t *testing.T) {
	r := require.New(t)

	boom := errors.New("boom")
	ctx, cancel := context.WithCancelCause(t.Context())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel(boom)
	}()

	s := New[int]()
	msg, err := s.Await(ctx, 0)
	r.ErrorIs(err, boom)
	r.Nil(msg)
}

func TestAwaitContextBeforePending(t *testing.T) {
	r := require.New(t)

	s := New[int]()
	s.Put(&Message[int]{Value: 1})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	msg, err := s.Await(ctx, 0)
	r.ErrorIs(err, context.Canceled)
	r.Nil(msg)
	r.True(s.Pending())
}

func TestConcurrentPut(t *testing.T) {
	r := require.New(t)

	const writers = 16
	s := New[int]()

	var wg sync.WaitGroup
	for i := range writers {
		wg.Go(func() {
			for range 100 {
				s.Put(&Message[int]{Value: i})
			}
		})
	}
	wg.Wait()

	// Exactly one message survives.
	_, ok := s.Take()
	r.True(ok)
	_, ok = s.Take()
	r.False(ok)
}
