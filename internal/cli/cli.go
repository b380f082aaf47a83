// Package cli implements the obfuspy command-line interface.
//
// The root command obfuscates one Python file. Subcommands analyze a file
// without rewriting it, obfuscate many files concurrently and print the
// version. The CLI is built on cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - obfuspy INPUT [OUTPUT]: obfuscate INPUT ("-" reads stdin) into OUTPUT
//     (default obfuscated.py, "-" writes stdout)
//   - analyze: print tree statistics and risk warnings
//   - batch: obfuscate many files into an output directory
//   - version: print version and platform
//
// # Logging
//
// --verbose (-v) switches to debug level and shows per-pass statistics;
// --quiet (-q) keeps warnings and errors only. The logger travels in the
// command context.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benzoXdev/obfuspy/internal/engine"
)

const appName = "obfuspy"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose bool
	quiet   bool
}

// New creates a CLI whose logger writes to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	f := newObfuscateFlags()
	root := &cobra.Command{
		Use:   appName + " INPUT [OUTPUT]",
		Short: "obfuspy rewrites Python source into an equivalent, unreadable program",
		Long: `obfuspy parses a Python module, renames every user identifier to a random
name, rewrites literals into equivalent expressions, scrubs docstrings and
flattens f-strings, then prints the result as Python source.

INPUT "-" reads stdin; an INPUT ending in .json is a tree already dumped by
the front-end. OUTPUT defaults to obfuscated.py; "-" writes stdout.`,
		Version:      engine.Version(),
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case c.verbose:
				c.SetLogLevel(LogDebug)
			case c.quiet:
				c.SetLogLevel(LogWarn)
			}
			if err := engine.LoadEnvFiles(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runObfuscate(cmd, args, f)
		},
	}
	root.SetVersionTemplate(engine.VersionFull() + "\n")

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "only log warnings and errors")
	f.register(root)

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// obfuscateFlags are the flags shared by the root and batch commands.
type obfuscateFlags struct {
	seed             int64
	randomSeed       bool
	iters            int
	config           string
	showTranslations bool
	rewriteImports   bool
	python           string
	parseTimeout     time.Duration
	validate         bool
	validateTimeout  int
	validateArgs     string
	validateStderr   string
	report           bool
	fuzz             int
}

func newObfuscateFlags() *obfuscateFlags {
	return &obfuscateFlags{iters: 1, parseTimeout: 30 * time.Second, validateStderr: "strict"}
}

func (f *obfuscateFlags) register(cmd *cobra.Command) {
	f.registerCommon(cmd)
	cmd.Flags().BoolVar(&f.showTranslations, "show-translations", false, "print original = obfuscated for every renamed identifier")
	cmd.Flags().BoolVar(&f.validate, "validate", false, "run original and obfuscated files and compare their output")
	cmd.Flags().IntVar(&f.validateTimeout, "validate-timeout", 30, "seconds allowed per --validate run")
	cmd.Flags().StringVar(&f.validateArgs, "validate-args", "", `arguments passed to both scripts by --validate (e.g. "--name 'a b'")`)
	cmd.Flags().StringVar(&f.validateStderr, "validate-stderr", f.validateStderr, "stderr comparison for --validate: strict, ignore")
	cmd.Flags().BoolVar(&f.report, "report", false, "print an obfuscation report")
	cmd.Flags().IntVar(&f.fuzz, "fuzz", 0, "write N variants with distinct seeds (name.vN.py)")
}

// registerCommon adds the flags that shape the rewrite itself.
func (f *obfuscateFlags) registerCommon(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed")
	cmd.Flags().BoolVar(&f.randomSeed, "random-seed", false, "draw a fresh seed and print it")
	cmd.Flags().IntVar(&f.iters, "iters", f.iters, "number of obfuscation passes")
	cmd.Flags().StringVar(&f.config, "config", "", "configuration file (default: $OBFUSPY_CONFIG or obfuspy.config)")
	cmd.Flags().BoolVar(&f.rewriteImports, "rewrite-imports", false, "turn plain imports into __import__ calls")
	cmd.Flags().StringVar(&f.python, "python", "", "Python interpreter (default: $OBFUSPY_PYTHON, python3, python)")
	cmd.Flags().DurationVar(&f.parseTimeout, "parse-timeout", f.parseTimeout, "time allowed for the Python front-end")
}

// options maps the flags onto engine options for one input and output.
func (f *obfuscateFlags) options(cmd *cobra.Command, input, output string) engine.Options {
	opts := engine.Options{
		InputFile:        input,
		OutputFile:       output,
		UseStdin:         input == "-",
		UseStdout:        output == "-",
		Seed:             f.seed,
		Seeded:           !f.randomSeed,
		Iterations:       f.iters,
		ConfigPath:       f.config,
		ConfigExplicit:   cmd.Flags().Changed("config"),
		ShowTranslations: f.showTranslations,
		RewriteImports:   f.rewriteImports,
		Python:           f.python,
		ParseTimeout:     f.parseTimeout,
		Validate:         f.validate,
		ValidateArgs:     f.validateArgs,
		ValidateStderr:   f.validateStderr,
		ValidateTimeout:  f.validateTimeout,
		Report:           f.report,
		Fuzz:             f.fuzz,
		Logger:           loggerFromContext(cmd.Context()),
		Stdin:            cmd.InOrStdin(),
		Stdout:           cmd.OutOrStdout(),
		Stderr:           cmd.ErrOrStderr(),
	}
	if opts.UseStdin {
		opts.InputFile = ""
	}
	if opts.UseStdout {
		opts.OutputFile = ""
	}
	return opts
}
