// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package cmd contains the rerun command-line interface.
package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"vawter.tech/waker"
	"vawter.tech/waker/internal/rerun"
	"vawter.tech/waker/internal/watch"
)

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand constructs the rerun command.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "rerun [flags] -- command [args...]",
		Short: "Re-run a command when files change",
		Long: `rerun watches files and runs a command in response to the most recent
change. Bursts of changes are collapsed into a single run, and a command
that is still running when a newer change arrives is killed and
restarted. The changed path is available to the command in the
` + rerun.PathEnv + ` environment variable.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		panic(err)
	}
	return cmd
}

// run watches the configured paths until a termination signal is
// received or the context is canceled.
func run(ctx context.Context, cfg *Config, command []string, stdout, stderr io.Writer) error {
	level, err := cfg.level()
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	w, err := watch.New(log, cfg.Ignore...)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	for _, path := range cfg.Watch {
		if err := w.Add(path); err != nil {
			return err
		}
	}

	tx, rx := waker.New[string]()
	forward := tx.Clone()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	waker.TerminateOnReceive(tx, signals)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		err := w.Forward(ctx, forward)
		if ctx.Err() != nil {
			return
		}
		// The watcher shut down unexpectedly, so there's nothing more
		// to wait for.
		if err != nil {
			log.Error("watcher stopped", slog.Any("error", err))
		}
		forward.Terminate()
	}()

	if cfg.Initial {
		forward.Send(".")
	}

	runner := &rerun.Runner{
		Command: command,
		Log:     log,
		Poll:    cfg.Poll,
		Stderr:  stderr,
		Stdout:  stdout,
	}
	log.Info("watching for changes", slog.Any("paths", cfg.Watch))
	return rx.Run(ctx, runner.Callback(),
		waker.WithHoldoff(cfg.Holdoff),
		waker.WithLogger(log),
		waker.WithName("rerun"),
		waker.WithWakeInterval(cfg.WakeInterval),
	)
}
