package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/benzoXdev/obfuspy/internal/frontend"
	"github.com/benzoXdev/obfuspy/pkg/errors"
	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

// Run executes one obfuscation session described by opts.
func Run(ctx context.Context, opts Options) error {
	opts = withDefaults(opts)
	if opts.Fuzz < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid --fuzz: %d (must be >= 0)", opts.Fuzz)
	}
	if opts.Iterations < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid --iters: %d (must be positive)", opts.Iterations)
	}
	if opts.Fuzz > 0 && opts.UseStdout {
		return errors.New(errors.ErrCodeInvalidInput, "cannot use --fuzz with stdout output")
	}
	if opts.Validate && opts.UseStdout {
		return errors.New(errors.ErrCodeInvalidInput, "cannot use --validate with stdout output")
	}
	if opts.Validate && opts.Fuzz > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cannot use --validate with --fuzz")
	}
	if err := requireInOut(opts); err != nil {
		return err
	}

	ignore, err := loadIgnoreSet(opts)
	if err != nil {
		return err
	}
	data, err := readAllInput(opts)
	if err != nil {
		return err
	}
	if err := validateUTF8(data); err != nil {
		return err
	}
	tree, err := parseInput(ctx, opts, data)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return runDryRun(opts, data, tree)
	}
	if opts.Fuzz > 0 {
		return runFuzz(ctx, opts, data, tree, ignore)
	}
	if err := processOnce(ctx, opts, data, tree, ignore); err != nil {
		return err
	}
	if opts.Validate {
		return runValidate(ctx, opts)
	}
	return nil
}

func withDefaults(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return opts
}

// loadIgnoreSet resolves and reads the config file. Unrecognized keys are
// logged and do not stop the run.
func loadIgnoreSet(opts Options) (IgnoreSet, error) {
	path, explicit := ResolveConfigPath(opts.ConfigPath, opts.ConfigExplicit)
	cfg, warnings, err := LoadConfig(path, explicit)
	if err != nil {
		return IgnoreSet{}, err
	}
	for _, w := range warnings {
		opts.Logger.Warn(w)
	}
	if len(cfg.IgnoreNames) > 0 {
		opts.Logger.Debug("config loaded", "path", path, "ignore_names", len(cfg.IgnoreNames))
	}
	return NewIgnoreSet(cfg.IgnoreNames...), nil
}

// parseInput turns the input bytes into a tree: .json inputs are pre-dumped
// trees, anything else goes through the Python front-end.
func parseInput(ctx context.Context, opts Options, data []byte) (*pyast.Module, error) {
	if !opts.UseStdin && isTreeInput(opts.InputFile) {
		return pyast.DecodeJSON(data)
	}
	p := &frontend.Parser{Python: opts.Python, Timeout: opts.ParseTimeout}
	return p.Parse(ctx, data)
}

func inputLabel(opts Options) string {
	if opts.UseStdin || opts.InputFile == "" {
		return "<stdin>"
	}
	return opts.InputFile
}

func outputLabel(opts Options) string {
	if opts.UseStdout {
		return "<stdout>"
	}
	return opts.OutputFile
}

func runDryRun(opts Options, data []byte, tree *pyast.Module) error {
	st := Analyze(tree)
	if opts.Quiet {
		return nil
	}
	fmt.Fprintf(opts.Stderr, "%s analyzing %s (%d bytes)\n", Cyan("Dry-run:"), Green(inputLabel(opts)), len(data))
	PrintAnalysis(opts.Stderr, st)
	fmt.Fprintln(opts.Stderr, Gray("No transformation or output (dry-run)."))
	return nil
}

// runFuzz writes opts.Fuzz variants, each with a seed derived from the run
// seed, so a fixed --seed reproduces the whole set.
func runFuzz(ctx context.Context, opts Options, data []byte, tree *pyast.Module, ignore IgnoreSet) error {
	InitRNG(&opts.Seed, opts.Seeded)
	if !opts.Quiet {
		fmt.Fprintf(opts.Stderr, "%s generating %d variants (seed %d)...\n", Cyan("Fuzz:"), opts.Fuzz, opts.Seed)
	}
	for i := 1; i <= opts.Fuzz; i++ {
		tmp := opts
		tmp.Seeded = true
		tmp.Seed = VariantSeed(opts.Seed, i)
		tmp.Quiet = true
		tmp.ShowTranslations = false
		tmp.Report = false
		tmp.OutputFile = fuzzOutName(opts.OutputFile, i)
		if err := processOnce(ctx, tmp, data, tree, ignore); err != nil {
			return fmt.Errorf("fuzz variant %d/%d failed: %w", i, opts.Fuzz, err)
		}
		if !opts.Quiet {
			fmt.Fprintf(opts.Stderr, "%s [%d/%d] %s\n", Green("Wrote:"), i, opts.Fuzz, tmp.OutputFile)
		}
	}
	if !opts.Quiet {
		fmt.Fprintf(opts.Stderr, "%s %d variants generated successfully\n", Green("Fuzz:"), opts.Fuzz)
	}
	return nil
}

func processOnce(ctx context.Context, opts Options, data []byte, tree *pyast.Module, ignore IgnoreSet) error {
	start := time.Now()
	r := InitRNG(&opts.Seed, opts.Seeded)
	d := NewDriver(r, DriverConfig{
		Iterations:     opts.Iterations,
		Ignore:         ignore,
		RewriteImports: opts.RewriteImports,
		Logger:         opts.Logger,
	})
	res, err := d.Run(ctx, tree)
	if err != nil {
		return err
	}
	out := pyast.Print(res.Tree)
	if err := writeOutput(opts, out); err != nil {
		return err
	}
	opts.Logger.Info("wrote output", "path", outputLabel(opts), "bytes", len(out))

	if opts.ShowTranslations {
		// Translations never interleave with obfuscated source on stdout.
		w := opts.Stdout
		if opts.UseStdout {
			w = opts.Stderr
		}
		printTranslations(w, res.Translations)
	}
	m := ComputeMetricsWithInput(out, len(data))
	if !opts.Quiet {
		fmt.Fprintf(opts.Stderr, "%s %d %s\n", Yellow("Seed:"), opts.Seed, Gray(fmt.Sprintf("(re-run with --seed %d for same output)", opts.Seed)))
		PrintMetrics(opts.Stderr, m)
	}
	if opts.Report {
		st := Analyze(tree)
		rep := &Report{
			InputPath:      inputLabel(opts),
			OutputPath:     outputLabel(opts),
			Seed:           opts.Seed,
			Iterations:     opts.Iterations,
			RewriteImports: opts.RewriteImports,
			Passes:         res.Passes,
			Analysis:       st,
			Metrics:        m,
			Warnings:       st.Warnings,
			Duration:       time.Since(start),
		}
		PrintReport(opts.Stderr, rep)
	}
	if !opts.Quiet && !opts.UseStdout {
		fmt.Fprintf(opts.Stderr, "%s %s\n", Green("Wrote:"), opts.OutputFile)
	}
	return nil
}

func printTranslations(w io.Writer, ts []Translation) {
	for _, t := range ts {
		fmt.Fprintf(w, "%s = %s\n", t.Original, Cyan(t.Obfuscated))
	}
}

// ObfuscateTree runs the driver over m with the given seed and returns the
// printed source. m is not modified.
func ObfuscateTree(ctx context.Context, m *pyast.Module, seed int64, cfg DriverConfig) (string, *Result, error) {
	r := InitRNG(&seed, true)
	res, err := NewDriver(r, cfg).Run(ctx, m)
	if err != nil {
		return "", nil, err
	}
	return pyast.Print(res.Tree), res, nil
}
