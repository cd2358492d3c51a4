package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/homekeep/internal/app"
	"github.com/dukerupert/homekeep/internal/config"
	"github.com/dukerupert/homekeep/internal/logging"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "homekeep",
		Short:         "Household inventory, tasks, notes and shopping lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default homekeep.{toml,yaml} in . or /etc/homekeep)")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		exportCmd(&configPath),
		backupCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "homekeep %s\n", version)
			},
		},
	)
	return cmd
}

// load reads the config and sets up the default logger.
func load(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.Setup(cfg.Log.Level, cfg.Log.Format), nil
}

func openApp(configPath string) (*app.App, error) {
	cfg, logger, err := load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger)
}
