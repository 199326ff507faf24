package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the user store schema and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repos, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer repos.Close(ctx)

			if err := repos.UserRepository().Ping(ctx); err != nil {
				return fmt.Errorf("store not reachable after migration: %w", err)
			}

			appLogger.Info(ctx, "user store schema is up to date")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "user store ready")

			return err
		},
	}
}
