// Package commands implements CLI command handlers for ghtraf.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DazzleML/ghtraf/internal/config"
	"github.com/DazzleML/ghtraf/internal/gh"
	"github.com/DazzleML/ghtraf/internal/tracker"
)

// setup resolves config, token, client, and logger for a command
// invocation. Every network-facing command starts here. Extra client
// options (request observers, transport overrides) are appended after
// the defaults.
func setup(cmd *cobra.Command, clientOpts ...gh.Option) (*config.Config, *tracker.Tracker, *slog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath, _ = cmd.Root().PersistentFlags().GetString("config")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	token, err := config.Token()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := append([]gh.Option{gh.WithLogger(logger)}, clientOpts...)
	client := gh.NewClient(token, opts...)

	return cfg, tracker.New(cfg, client, logger), logger, nil
}

// newLogger builds the slog logger from config, bumped to debug by the
// --verbose flag.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Logging.Level, err)
	}

	if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler), nil
}
