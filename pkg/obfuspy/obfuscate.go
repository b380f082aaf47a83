// Package obfuspy is the library entry point: it obfuscates Python source
// held in memory, without touching the file system.
package obfuspy

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/benzoXdev/obfuspy/internal/engine"
	"github.com/benzoXdev/obfuspy/internal/frontend"
	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

// Config controls an obfuscation run.
type Config struct {
	// Seed makes the output reproducible; equal seeds give equal output.
	Seed int64
	// Iterations is the number of passes; 0 means 1.
	Iterations int
	// IgnoreNames are kept as written in addition to the builtins.
	IgnoreNames []string
	// RewriteImports turns plain imports into __import__ calls.
	RewriteImports bool
	// Python is the interpreter used to parse source; empty searches PATH.
	Python string
	// Logger receives per-pass statistics at debug level; nil discards.
	Logger *log.Logger
}

func (c Config) driver() engine.DriverConfig {
	iters := c.Iterations
	if iters == 0 {
		iters = 1
	}
	return engine.DriverConfig{
		Iterations:     iters,
		Ignore:         engine.NewIgnoreSet(c.IgnoreNames...),
		RewriteImports: c.RewriteImports,
		Logger:         c.Logger,
	}
}

// Obfuscate parses src with the Python front-end and returns the obfuscated
// source.
func Obfuscate(ctx context.Context, src string, cfg Config) (string, error) {
	p := &frontend.Parser{Python: cfg.Python}
	m, err := p.Parse(ctx, []byte(src))
	if err != nil {
		return "", err
	}
	out, _, err := engine.ObfuscateTree(ctx, m, cfg.Seed, cfg.driver())
	return out, err
}

// ObfuscateTree obfuscates an already parsed module and returns the new tree
// together with the original-to-obfuscated name pairs. m is not modified.
func ObfuscateTree(ctx context.Context, m *pyast.Module, cfg Config) (*pyast.Module, map[string]string, error) {
	_, res, err := engine.ObfuscateTree(ctx, m, cfg.Seed, cfg.driver())
	if err != nil {
		return nil, nil, err
	}
	names := make(map[string]string, len(res.Translations))
	for _, t := range res.Translations {
		names[t.Original] = t.Obfuscated
	}
	return res.Tree, names, nil
}
