package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/fanout-debugger/config"
	"github.com/d60-Lab/fanout-debugger/internal/app"
	"github.com/d60-Lab/fanout-debugger/pkg/logger"
)

// Opener builds the application dependencies for a command.
type Opener func(ctx context.Context) (*app.App, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
	Open   Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultOpener loads config from the environment and opens the database.
func DefaultOpener(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// NewRootCommand creates the root command for the fanoutctl CLI.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = DefaultOpener
	}
	opts := &RootOptions{Open: open}

	cmd := &cobra.Command{
		Use:   "fanoutctl",
		Short: "Inspect and replay event fanout",
		Long:  "Operational CLI for the event fanout debugger: migrate, seed, emit events, replay and inspect traces.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewEmitCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withApp opens the app, runs fn and closes it.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(a *app.App) error) error {
	a, err := opts.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
