package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nabhacare/backend/internal/infrastructure/clients/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(cfg.Database.MigrationURL()); err != nil {
				return err
			}
			return printStatus(cmd, cfg.Database.MigrationURL())
		},
	})

	// migrate down
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}

			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(cfg.Database.MigrationURL(), steps); err != nil {
				return err
			}
			return printStatus(cmd, cfg.Database.MigrationURL())
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(downCmd)

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			return printStatus(cmd, cfg.Database.MigrationURL())
		},
	})

	return cmd
}

func printStatus(cmd *cobra.Command, databaseURL string) error {
	status, err := postgres.Status(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	state := "clean"
	if status.Dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", status.Version, state)
	return nil
}
