package main

import (
	"fmt"
	"os"

	"github.com/Yasuno-5555/investidabh/pkg/config"
	"github.com/Yasuno-5555/investidabh/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collector",
		Short: "OSINT collection worker",
		Long: `collector consumes collection tasks from Redis, fetches web targets in a headless
browser or queries feed, social, code-host and certificate transparency sources,
and stores every result with its SHA-256 digest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewEnqueueCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewRotateCmd())
	cmd.AddCommand(NewVerifyCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads and validates configuration and builds the logger every command uses.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
