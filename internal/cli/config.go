package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/commitgen/internal/config"
	"github.com/dshills/commitgen/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage commitgen configuration",
	}

	var showFormat string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration with the API key masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configDir)
			if err != nil {
				return err
			}
			return output.Encode(a.stdout, showFormat, cfg.Redacted())
		},
	}
	showCmd.Flags().StringVar(&showFormat, "output", output.FormatJSON, "Output format (json, yaml)")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.stdout, config.Path(a.configDir))
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Known keys: api_key, model, base_url,
commit_types, exclude, redact_paths (comma separated), max_tokens,
history_count, max_diff_bytes, redact_secrets.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Set(a.configDir, args[0], args[1]); err != nil {
				return err
			}

			shown := args[1]
			if args[0] == "api_key" {
				shown = config.Config{APIKey: shown}.Redacted().APIKey
			}
			a.success("Set %s = %s", args[0], shown)
			return nil
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, string(data))
			return err
		},
	}

	cmd.AddCommand(showCmd, pathCmd, setCmd, schemaCmd)
	return cmd
}
