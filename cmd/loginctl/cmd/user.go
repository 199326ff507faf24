package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pilab-dev/shadow-login/domain"
)

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:     "user",
		Short:   "Look up shadow users",
		Aliases: []string{"users"},
	}

	var provider, externalID string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Find a user by provider and external id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if provider == "" || externalID == "" {
				return errors.New("--provider and --external-id are required")
			}

			ctx := cmd.Context()
			repos, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer repos.Close(ctx)

			user, err := repos.UserRepository().FindByProviderAndExternalID(ctx, provider, externalID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return fmt.Errorf("no user for %s:%s", provider, externalID)
				}
				return err
			}

			return printValue(cmd.OutOrStdout(), user)
		},
	}
	getCmd.Flags().StringVar(&provider, "provider", "", "provider key, e.g. GITHUB")
	getCmd.Flags().StringVar(&externalID, "external-id", "", "the provider's id for the user")

	showCmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repos, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer repos.Close(ctx)

			user, err := repos.UserRepository().FindByID(ctx, args[0])
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return fmt.Errorf("no user with id %s", args[0])
				}
				return err
			}

			return printValue(cmd.OutOrStdout(), user)
		},
	}

	userCmd.AddCommand(getCmd, showCmd)

	return userCmd
}
