package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nabhacare/backend/internal/adapters/auth"
	"github.com/nabhacare/backend/internal/adapters/database"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/infrastructure/notifications"
)

const sessionResolveTimeout = 10 * time.Second

func issueTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Sign a session token for a user (development only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.App.Env == "production" {
				return fmt.Errorf("issue-token is disabled in production")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(args[0], email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Email claim")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to AUTH_TOKEN_TTL)")
	return cmd
}

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Resolve a session token to its user and profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")
			if token == "" {
				return fmt.Errorf("--token is required")
			}

			ctx := cmd.Context()
			cfg, pgClient, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer pgClient.Close()

			var toasts []entities.Notification
			dispatcher := notifications.NewDispatcher(func(n entities.Notification) {
				toasts = append(toasts, n)
			})

			sessions := auth.NewTokenSessionProvider(auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
			if _, err := sessions.SignIn(ctx, token); err != nil {
				return err
			}

			resolver := services.NewSessionResolver(sessions, database.NewProfileAdapter(pgClient), dispatcher, dispatcher)
			if err := resolver.Start(ctx); err != nil {
				return err
			}
			state, err := awaitSession(ctx, resolver)
			resolver.Stop()
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"session":       state.Session,
				"profile":       state.Profile,
				"caller":        state.Caller(),
				"notifications": toasts,
			})
		},
	}
	cmd.Flags().String("token", "", "Session token to resolve")
	return cmd
}

// awaitSession polls the resolver until the profile fetch settles
func awaitSession(ctx context.Context, resolver *services.SessionResolver) (services.SessionState, error) {
	ctx, cancel := context.WithTimeout(ctx, sessionResolveTimeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		state := resolver.State()
		if !state.Loading && state.Session != nil {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return services.SessionState{}, fmt.Errorf("session did not resolve: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
