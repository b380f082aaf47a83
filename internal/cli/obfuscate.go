package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/benzoXdev/obfuspy/internal/engine"
)

// runObfuscate handles the root command.
func (c *CLI) runObfuscate(cmd *cobra.Command, args []string, f *obfuscateFlags) error {
	output := engine.DefaultOutputFile
	if len(args) == 2 {
		output = args[1]
	}
	opts := f.options(cmd, args[0], output)
	opts.Quiet = c.quiet

	start := time.Now()
	if !opts.Quiet && !opts.UseStdout {
		engine.PrintBanner(opts.Stderr)
	}
	if err := engine.Run(cmd.Context(), opts); err != nil {
		return err
	}
	if !opts.Quiet {
		fmt.Fprintln(opts.Stderr, engine.Gray(fmt.Sprintf("Done in %s", time.Since(start).Round(time.Millisecond))))
	}
	return nil
}
