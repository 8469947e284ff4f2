package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the nexus release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/nexus"

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the nexus version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return writeJSON(cmd, map[string]string{"version": Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "nexus v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
