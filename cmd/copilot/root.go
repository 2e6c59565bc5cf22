package main

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spf13/cobra"

	"github.com/netcopilot/api/internal/app"
	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/logging"
)

// commandContext builds the application container on first use so that
// help and flag errors never need credentials.
type commandContext struct {
	logLevel *string

	once      sync.Once
	container *app.Container
	err       error
}

func (c *commandContext) services(ctx context.Context) (*app.Container, error) {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = err
			return
		}
		level := cfg.Server.LogLevel
		if *c.logLevel != "" {
			level = *c.logLevel
		}
		logger, err := logging.New(level, cfg.Server.Env)
		if err != nil {
			c.err = err
			return
		}
		c.container, c.err = app.New(ctx, cfg, logger)
	})
	return c.container, c.err
}

func (c *commandContext) close() {
	if c.container != nil {
		_ = c.container.Logger.Sync()
		c.container.Close()
	}
}

func newRootCommand() *cobra.Command {
	logLevel := "warn"
	ctx := &commandContext{logLevel: &logLevel}

	rootCmd := &cobra.Command{
		Use:           "copilot",
		Short:         "Networking copilot: look up, enrich and capture contacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newLookupCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newEnrichCommand(ctx))
	rootCmd.AddCommand(newCaptureCommand(ctx))
	rootCmd.AddCommand(newPeopleCommand(ctx))

	return rootCmd
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
