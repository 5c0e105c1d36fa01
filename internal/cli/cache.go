package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/commitgen/internal/cache"
	"github.com/dshills/commitgen/internal/output"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the generated message cache",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.NewFile(a.cacheDir(), 0)
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			n, err := c.Clear()
			if err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			a.success("Removed %d cached message(s).", n)
			return nil
		},
	}

	var showFormat string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.NewFile(a.cacheDir(), 0)
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			stats, err := c.GetStats()
			if err != nil {
				return fmt.Errorf("reading cache stats: %w", err)
			}
			return output.Encode(a.stdout, showFormat, stats)
		},
	}
	showCmd.Flags().StringVar(&showFormat, "output", output.FormatJSON, "Output format (json, yaml)")

	cmd.AddCommand(clearCmd, showCmd)
	return cmd
}
