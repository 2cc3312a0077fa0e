// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package waker

import (
	"context"
	"log/slog"
	"runtime/trace"
	"time"

	"golang.org/x/time/rate"
	"vawter.tech/waker/internal/safe"
)

// Run invokes the callback with the most recently sent value until a
// [Sender] calls Terminate or the context is canceled. The callback is
// executed synchronously on the calling goroutine and receives an
// [Interrupter] that reports when its work has been superseded.
//
// Run returns nil once a termination request is observed and returns
// the context's cause if it is canceled. If the callback panics, the
// loop stops and a [RecoveredError] is returned; the Senders remain
// usable.
//
// Run may only be called once per Receiver; a second call to Run or to
// [Receiver.RunMultithreaded] panics with [ErrConsumed].
func (r *Receiver[T]) Run(
	ctx context.Context, fn func(T, *Interrupter), opts ...RunOption,
) error {
	return r.run(ctx, opts, func(ctx context.Context, val T) error {
		i := &Interrupter{ctx: ctx, peek: r.slot}
		defer i.expire()
		return safe.Call(func() { fn(val, i) })
	})
}

// RunMultithreaded is equivalent to [Receiver.Run], except that the
// callback receives a [MultiInterrupter] which may be cloned and shared
// with any number of worker goroutines.
func (r *Receiver[T]) RunMultithreaded(
	ctx context.Context, fn func(T, MultiInterrupter), opts ...RunOption,
) error {
	return r.run(ctx, opts, func(ctx context.Context, val T) error {
		m := newMultiInterrupter(ctx, r.slot)
		defer m.expire()
		return safe.Call(func() { fn(val, m) })
	})
}

// run is the receive loop shared by Run and RunMultithreaded.
func (r *Receiver[T]) run(
	ctx context.Context, opts []RunOption, invoke func(context.Context, T) error,
) error {
	r.consume()
	cfg := newConfig(opts)
	limiter := cfg.limiter()
	log := cfg.logger.With(slog.String("loop", cfg.name))

	ctx, task := trace.NewTask(ctx, cfg.name)
	defer task.End()

	log.DebugContext(ctx, "receiver started")
	for {
		val, ok, err := r.next(ctx, cfg, limiter)
		if err != nil {
			log.DebugContext(ctx, "receiver canceled", slog.Any("cause", err))
			return err
		}
		if !ok {
			log.DebugContext(ctx, "receiver terminated")
			return nil
		}

		deliverCtx, deliverTask := trace.NewTask(ctx, "deliver")
		err = invoke(deliverCtx, val)
		deliverTask.End()
		if err != nil {
			log.DebugContext(ctx, "callback panicked", slog.Any("error", err))
			return err
		}
	}
}

// next blocks until a value should be delivered. It returns false if a
// termination request was observed.
func (r *Receiver[T]) next(
	ctx context.Context, cfg *config, limiter *rate.Limiter,
) (val T, ok bool, err error) {
	region := trace.StartRegion(ctx, "await message")
	msg, err := r.slot.Await(ctx, cfg.wakeInterval)
	region.End()
	if err != nil || msg.Terminate {
		return val, false, err
	}
	val = msg.Value

	if cfg.holdoff > 0 {
		if val, ok, err = r.holdoff(ctx, cfg.holdoff, val); !ok {
			return val, false, err
		}
	}

	if limiter != nil && !limiter.Allow() {
		if val, ok, err = r.throttle(ctx, limiter, val); !ok {
			return val, false, err
		}
	}

	// The context may have been canceled while waiting.
	if ctx.Err() != nil {
		return val, false, context.Cause(ctx)
	}
	return val, true, nil
}

// holdoff repeatedly sleeps until no new value has been sent during the
// holdoff period. A termination request discards the held value.
func (r *Receiver[T]) holdoff(
	ctx context.Context, d time.Duration, val T,
) (_ T, ok bool, err error) {
	defer trace.StartRegion(ctx, "holdoff").End()

	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
		case <-ctx.Done():
			return val, false, context.Cause(ctx)
		}

		msg, found := r.slot.Take()
		switch {
		case !found:
			return val, true, nil
		case msg.Terminate:
			return val, false, nil
		default:
			val = msg.Value
			timer.Reset(d)
		}
	}
}

// throttle waits for the limiter, then picks up any value that was sent
// in the meantime. A delay that exceeds the context's deadline is
// still waited out until the context is done.
func (r *Receiver[T]) throttle(
	ctx context.Context, limiter *rate.Limiter, val T,
) (_ T, ok bool, err error) {
	defer trace.StartRegion(ctx, "rate limit wait").End()

	// The burst is at least one, so the reservation is always OK.
	res := limiter.Reserve()
	timer := time.NewTimer(res.Delay())
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		res.Cancel()
		return val, false, context.Cause(ctx)
	}

	if msg, found := r.slot.Take(); found {
		if msg.Terminate {
			return val, false, nil
		}
		val = msg.Value
	}
	return val, true, nil
}
