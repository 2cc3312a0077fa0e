// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package rerun executes a command in response to a changed path,
// killing it if the change is superseded.
package rerun

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"vawter.tech/waker"
)

// PathEnv is the environment variable that receives the changed path.
const PathEnv = "RERUN_PATH"

// An Outcome describes how a command execution ended.
type Outcome int

// Outcomes of [Runner.Exec].
const (
	Completed Outcome = iota
	Interrupted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// A Runner executes a command.
type Runner struct {
	Command []string      // The program and its arguments.
	Log     *slog.Logger  // Required.
	Poll    time.Duration // Defaults to 50ms if unset.
	Stderr  io.Writer     // Defaults to os.Stderr if unset.
	Stdout  io.Writer     // Defaults to os.Stdout if unset.
}

// Callback adapts the Runner to [waker.Receiver.Run]. Execution errors
// are logged.
func (r *Runner) Callback() func(string, *waker.Interrupter) {
	return func(path string, intr *waker.Interrupter) {
		start := time.Now()
		outcome, err := r.Exec(path, intr)
		attrs := []any{
			slog.String("path", path),
			slog.String("outcome", outcome.String()),
			slog.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			r.Log.Warn("command failed", append(attrs, slog.Any("error", err))...)
			return
		}
		r.Log.Info("command finished", attrs...)
	}
}

// Exec starts the command and waits for it to exit. The Checker is
// polled while the command runs; if it reports an interruption, the
// process is killed. The error reflects how the command exited, unless
// it was interrupted.
func (r *Runner) Exec(path string, intr waker.Checker) (Outcome, error) {
	if len(r.Command) == 0 {
		return Completed, errors.New("no command specified")
	}
	poll := r.Poll
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}

	cmd := exec.Command(r.Command[0], r.Command[1:]...)
	cmd.Env = append(os.Environ(), PathEnv+"="+path)
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	r.Log.Debug("starting command", slog.String("path", path), slog.Any("command", r.Command))
	if err := cmd.Start(); err != nil {
		return Completed, err
	}
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case err := <-exited:
			return Completed, err
		case <-ticker.C:
			if !intr.Interrupted() {
				continue
			}
			r.Log.Debug("killing superseded command", slog.Int("pid", cmd.Process.Pid))
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				return Interrupted, err
			}
			<-exited
			return Interrupted, nil
		}
	}
}
