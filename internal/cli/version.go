package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benzoXdev/obfuspy/internal/engine"
)

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), engine.VersionFull())
			return err
		},
	}
}
