package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pilab-dev/shadow-login/internal/federation"
)

func newResolveCmd() *cobra.Command {
	var registrationID, file string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Map a provider attribute dump to the canonical profile",
		Long: `Reads the raw user attributes returned by a provider (JSON object) and prints the
profile a login would produce. No email lookup is done.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if registrationID == "" {
				return errors.New("--registration is required")
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			dec := json.NewDecoder(in)
			dec.UseNumber()

			var attrs federation.Attributes
			if err := dec.Decode(&attrs); err != nil {
				return fmt.Errorf("failed to decode attributes: %w", err)
			}

			resolver := federation.NewResolver(nil, appLogger)
			profile := resolver.Resolve(cmd.Context(), registrationID, attrs, nil)

			return printValue(cmd.OutOrStdout(), profile)
		},
	}

	cmd.Flags().StringVarP(&registrationID, "registration", "r", "", "registration id, e.g. github or azure")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "attribute file, - for stdin")

	return cmd
}
