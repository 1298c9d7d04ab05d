package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shoplist/internal/utils"
)

// newExportCmd creates the 'export' command dumping the local snapshot.
func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the local snapshot",
		Long: `Dump the local snapshot in a machine-readable format.

Examples:
  shoplist export                  # YAML to stdout
  shoplist export --format json    # JSON to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := application.client.Snapshot()
			if err != nil {
				return err
			}

			switch format {
			case "yaml":
				return utils.WriteYAML(os.Stdout, snap)
			case "json":
				return utils.WriteJSON(os.Stdout, snap)
			default:
				return fmt.Errorf("unknown format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	return cmd
}
