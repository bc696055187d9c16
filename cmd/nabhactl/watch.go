package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nabhacare/backend/internal/adapters/database"
	"github.com/nabhacare/backend/internal/adapters/events"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/infrastructure/clients/redis"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <consultation-id>",
		Short: "Print a consultation and every change to it until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pgClient, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer pgClient.Close()

			redisClient, err := redis.NewClient(&cfg.Redis)
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer redisClient.Close()

			eventBus := events.NewRedisEventBus(redisClient)
			defer eventBus.Close()

			listener := services.NewConsultationListener(database.NewConsultationAdapter(pgClient), eventBus)
			watch, err := listener.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer watch.Close()

			out := cmd.OutOrStdout()
			if err := printJSON(out, watch.Snapshot()); err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case update, ok := <-watch.Updates():
					if !ok {
						return nil
					}
					if err := printJSON(out, update); err != nil {
						return err
					}
				}
			}
		},
	}
}
