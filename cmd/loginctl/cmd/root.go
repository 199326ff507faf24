package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pilab-dev/shadow-login/config"
	"github.com/pilab-dev/shadow-login/internal/storage"
	"github.com/pilab-dev/shadow-login/log"
	"github.com/pilab-dev/shadow-login/services"
)

const appName = "loginctl"

var (
	appLogger    log.Logger
	outputFormat string
	verbose      bool

	// openStore is swapped in tests.
	openStore = func(ctx context.Context) (services.RepositoryProvider, error) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		return storage.Open(ctx, cfg)
	}
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "loginctl inspects the shadow-login user store",
		Long:          `A command-line tool for operators: look up shadow users, prepare the store schema and dry-run provider attribute mapping.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			appLogger = log.NewZerologAdapterWithWriter(cmd.ErrOrStderr(), level)

			switch outputFormat {
			case "yaml", "json":
				return nil
			default:
				return fmt.Errorf("unsupported output format %q", outputFormat)
			}
		},
	}

	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newUserCmd(), newMigrateCmd(), newResolveCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func printValue(w io.Writer, v any) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	// Round-trip through JSON so yaml keys follow the json tags.
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()

	return enc.Encode(generic)
}
