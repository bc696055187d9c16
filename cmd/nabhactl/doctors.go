package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nabhacare/backend/internal/adapters/database"
	"github.com/nabhacare/backend/internal/adapters/search"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/infrastructure/clients/typesense"
	"github.com/nabhacare/backend/internal/infrastructure/notifications"
)

func reindexDoctorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex-doctors",
		Short: "Rebuild the doctor search index from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pgClient, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer pgClient.Close()

			tsClient, err := typesense.NewClient(&cfg.Typesense)
			if err != nil {
				return fmt.Errorf("failed to connect to typesense: %w", err)
			}
			if err := tsClient.InitSchema(ctx); err != nil {
				return fmt.Errorf("failed to init typesense schema: %w", err)
			}

			service := services.NewDoctorService(
				database.NewDoctorAdapter(pgClient),
				search.NewTypesenseAdapter(tsClient),
				notifications.NewDispatcher(nil),
			)
			count, err := service.Reindex(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d doctor(s)\n", count)
			return nil
		},
	}
}
