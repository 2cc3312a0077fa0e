// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings for the rerun command. Values are merged
// from flags, RERUN_-prefixed environment variables, and an optional
// rerun.yaml file, in that order of precedence.
type Config struct {
	Holdoff      time.Duration `mapstructure:"holdoff"`
	Ignore       []string      `mapstructure:"ignore"`
	Initial      bool          `mapstructure:"initial"`
	LogLevel     string        `mapstructure:"log-level"`
	Poll         time.Duration `mapstructure:"poll"`
	WakeInterval time.Duration `mapstructure:"wake-interval"`
	Watch        []string      `mapstructure:"watch"`
}

// bindFlags registers the command-line flags and binds them to the
// viper instance.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.StringP("config", "c", "", "config file (default is ./rerun.yaml or $HOME/.config/rerun/rerun.yaml)")
	flags.Duration("holdoff", 100*time.Millisecond, "quiet period before running the command")
	flags.StringSlice("ignore", nil, "additional directory names to ignore")
	flags.Bool("initial", true, "run the command once at startup")
	flags.String("log-level", "info", "log level: debug, info, warn, or error")
	flags.Duration("poll", 50*time.Millisecond, "how often a running command checks for newer changes")
	flags.Duration("wake-interval", 0, "idle re-check interval; zero waits for notifications only")
	flags.StringSliceP("watch", "w", []string{"."}, "paths to watch")
	return v.BindPFlags(flags)
}

// loadConfig reads the optional configuration file and decodes the
// merged settings.
func loadConfig(v *viper.Viper) (*Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("rerun")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "rerun"))
		}
	}

	v.SetEnvPrefix("RERUN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if len(cfg.Watch) == 0 {
		return nil, errors.New("at least one path must be watched")
	}
	return cfg, nil
}

// level parses the configured log level.
func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("log-level: %w", err)
	}
	return level, nil
}
