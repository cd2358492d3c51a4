package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/homekeep/internal/config"
	"github.com/dukerupert/homekeep/internal/database"
	"github.com/dukerupert/homekeep/internal/export"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and print the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Backend != config.BackendSQLite {
				return fmt.Errorf("migrate needs the sqlite backend, got %q", cfg.Database.Backend)
			}
			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := database.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", cfg.Database.Path, v)
			return nil
		},
	}
}

func exportCmd(configPath *string) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every household record as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := export.Take(cmd.Context(), a.Repos)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			return snap.Write(w, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatYAML, "output format (yaml, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func backupCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage encrypted S3 backups of the SQLite database",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			backups, err := a.Backups.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tSIZE\tCREATED\tKEY")
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", b.ID, b.Status, b.SizeBytes, b.CreatedAt.Format(time.RFC3339), b.S3Key)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of backups to show")

	run := &cobra.Command{
		Use:   "run",
		Short: "Back up the database now",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.Backups.RunNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %s uploaded to %s (%d bytes)\n", b.ID, b.S3Key, b.SizeBytes)
			return nil
		},
	}

	var dst string
	restore := &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Download, decrypt and restore a backup",
		Long: `Restore writes the backup over the configured database, or over --output
when given. Stop the server before restoring over a live database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			target := dst
			if target == "" {
				target = a.Config.Database.Path
			}
			if err := a.Backups.Restore(cmd.Context(), args[0], target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored backup %s to %s\n", args[0], target)
			return nil
		},
	}
	restore.Flags().StringVarP(&dst, "output", "o", "", "restore to this path instead of the configured database")

	cmd.AddCommand(list, run, restore)
	return cmd
}
