package cli

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/benzoXdev/obfuspy/internal/engine"
	"github.com/benzoXdev/obfuspy/pkg/errors"
)

// batchCommand creates the batch command for obfuscating many files.
func (c *CLI) batchCommand() *cobra.Command {
	var (
		outDir string
		jobs   int
	)
	f := newObfuscateFlags()
	cmd := &cobra.Command{
		Use:   "batch --out-dir DIR INPUT...",
		Short: "Obfuscate many Python files concurrently",
		Long: `Obfuscate every INPUT into DIR, keeping file names. Files are processed
concurrently; each one gets the run seed, so its output is the same as a
single-file run with that seed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, args, f, outDir, jobs)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "d", "", "output directory (required)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "files processed in parallel")
	_ = cmd.MarkFlagRequired("out-dir")
	f.registerCommon(cmd)
	return cmd
}

// batchOutputs maps each input to its file in outDir. Two inputs with the
// same base name would overwrite each other and are rejected.
func batchOutputs(inputs []string, outDir string) ([]string, error) {
	outs := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, in := range inputs {
		if in == "-" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "batch does not read stdin")
		}
		base := filepath.Base(in)
		if ext := filepath.Ext(base); ext == ".json" {
			base = base[:len(base)-len(ext)] + ".py"
		}
		if prev, ok := seen[base]; ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s and %s would both write %s", prev, in, base)
		}
		seen[base] = in
		outs[i] = filepath.Join(outDir, base)
	}
	return outs, nil
}

func (c *CLI) runBatch(cmd *cobra.Command, inputs []string, f *obfuscateFlags, outDir string, jobs int) error {
	logger := loggerFromContext(cmd.Context())
	outputs, err := batchOutputs(inputs, outDir)
	if err != nil {
		return err
	}
	if jobs < 1 {
		jobs = 1
	}
	if f.randomSeed {
		engine.InitRNG(&f.seed, false)
		f.randomSeed = false
		logger.Info("drew seed", "seed", f.seed)
	}

	prog := newProgress(logger)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for i, in := range inputs {
		opts := f.options(cmd, in, outputs[i])
		opts.Quiet = true
		g.Go(func() error {
			if err := engine.Run(ctx, opts); err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			logger.Info("obfuscated", "input", in, "output", opts.OutputFile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Obfuscated %d files into %s", len(inputs), outDir))
	return nil
}
