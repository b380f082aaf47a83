package cli

import (
	"github.com/spf13/cobra"

	"github.com/benzoXdev/obfuspy/internal/engine"
)

// analyzeCommand creates the analyze command: a dry run that prints tree
// statistics and warnings without writing anything.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		python string
		config string
	)
	cmd := &cobra.Command{
		Use:   "analyze INPUT",
		Short: "Print statistics and risk warnings for a Python file",
		Long: `Parse INPUT and report what obfuspy would touch: functions, classes,
names, imports, literals, docstrings and f-strings. Constructs that look up
identifiers by string (getattr, globals, __slots__, eval) are flagged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.Options{
				InputFile:      args[0],
				UseStdin:       args[0] == "-",
				DryRun:         true,
				Iterations:     1,
				Python:         python,
				ConfigPath:     config,
				ConfigExplicit: cmd.Flags().Changed("config"),
				Logger:         loggerFromContext(cmd.Context()),
				Stdin:          cmd.InOrStdin(),
				Stdout:         cmd.OutOrStdout(),
				Stderr:         cmd.OutOrStdout(),
			}
			if opts.UseStdin {
				opts.InputFile = ""
			}
			return engine.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&python, "python", "", "Python interpreter (default: $OBFUSPY_PYTHON, python3, python)")
	cmd.Flags().StringVar(&config, "config", "", "configuration file (default: $OBFUSPY_CONFIG or obfuspy.config)")
	return cmd
}
