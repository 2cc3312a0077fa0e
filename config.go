// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package waker

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// A RunOption configures [Receiver.Run] or [Receiver.RunMultithreaded].
type RunOption func(*config)

// WithHoldoff delays delivery of a value until no newer value has been
// sent for the given duration. This collapses a burst of values into
// the last one sent. If the Receiver observes a termination request
// while holding off, the held value is discarded.
//
// The holdoff sleep is not interrupted by new values, so a
// termination request may take up to one holdoff period to be
// observed.
func WithHoldoff(d time.Duration) RunOption {
	return func(cfg *config) {
		cfg.holdoff = d
	}
}

// WithLogger sets a logger that will receive debug-level lifecycle
// messages. By default, nothing is logged.
func WithLogger(logger *slog.Logger) RunOption {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithMaxRate limits the rate at which the callback is invoked using a
// [rate.Limiter]. Values that are sent while waiting on the limiter
// replace the value that is waiting to be delivered. A burst less than
// one is treated as one.
func WithMaxRate(r rate.Limit, burst int) RunOption {
	return func(cfg *config) {
		cfg.rate = r
		cfg.burst = burst
	}
}

// WithName sets the name of the [runtime/trace.Task] created for the
// run loop. It is also attached to log messages.
func WithName(name string) RunOption {
	return func(cfg *config) {
		cfg.name = name
	}
}

// WithWakeInterval causes an idle Receiver to re-check for pending
// values at the given interval. It is a polling granularity only and
// has no coalescing effect.
func WithWakeInterval(d time.Duration) RunOption {
	return func(cfg *config) {
		cfg.wakeInterval = d
	}
}

type config struct {
	burst        int
	holdoff      time.Duration
	logger       *slog.Logger
	name         string
	rate         rate.Limit // Zero disables rate limiting.
	wakeInterval time.Duration
}

func newConfig(opts []RunOption) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.sanitize()
	return cfg
}

// limiter returns nil if rate limiting is not configured.
func (c *config) limiter() *rate.Limiter {
	if c.rate <= 0 {
		return nil
	}
	return rate.NewLimiter(c.rate, c.burst)
}

func (c *config) sanitize() {
	if c.burst < 1 {
		c.burst = 1
	}
	if c.holdoff < 0 {
		c.holdoff = 0
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.name == "" {
		c.name = "waker"
	}
	if c.wakeInterval < 0 {
		c.wakeInterval = 0
	}
}
