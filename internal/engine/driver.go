package engine

import (
	"context"
	"io"
	mathrand "math/rand"

	"github.com/charmbracelet/log"

	"github.com/benzoXdev/obfuspy/pkg/errors"
	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

// DriverConfig controls a Driver.
type DriverConfig struct {
	// Iterations is the number of collect/rewrite passes. It must be at
	// least 1.
	Iterations int
	// Ignore lists names never renamed. The zero value means the builtins only.
	Ignore IgnoreSet
	// Registry supplies literal rewrites; nil means DefaultRegistry.
	Registry *Registry
	// RewriteImports turns plain imports into __import__ assignments.
	RewriteImports bool
	// Logger receives per-pass statistics at debug level; nil discards.
	Logger *log.Logger
}

// PassStats counts what a single pass did.
type PassStats struct {
	Iteration      int `json:"iteration"`
	Renamed        int `json:"renamed"`
	ImportBindings int `json:"import_bindings"`
	Literals       int `json:"literals"`
	Docstrings     int `json:"docstrings"`
	FStrings       int `json:"fstrings"`
	DynamicImports int `json:"dynamic_imports"`
}

// Translation is one renamed identifier, from its name in the input to its
// name in the output.
type Translation struct {
	Original   string `json:"original"`
	Obfuscated string `json:"obfuscated"`
}

// Result is the outcome of a Driver run.
type Result struct {
	Tree         *pyast.Module
	Passes       []PassStats
	Translations []Translation
}

// Driver runs the configured number of passes over a tree.
type Driver struct {
	r   *mathrand.Rand
	cfg DriverConfig
}

// NewDriver returns a Driver drawing all randomness from r.
func NewDriver(r *mathrand.Rand, cfg DriverConfig) *Driver {
	if cfg.Ignore.names == nil {
		cfg.Ignore = NewIgnoreSet()
	}
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &Driver{r: r, cfg: cfg}
}

// Run obfuscates m and returns the finalized tree. m is not modified.
// The context is checked between passes.
func (d *Driver) Run(ctx context.Context, m *pyast.Module) (res *Result, err error) {
	if d.cfg.Iterations < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "iterations must be positive, got %d", d.cfg.Iterations)
	}
	kv := []any{"iterations", d.cfg.Iterations, "ignored", d.cfg.Ignore.Len()}
	for s := ShapeEmptyString; s <= ShapeFloat; s++ {
		kv = append(kv, s.String(), d.cfg.Registry.Len(s))
	}
	d.cfg.Logger.Debug("driver start", kv...)
	defer func() {
		if p := recover(); p != nil {
			e, ok := p.(*errors.Error)
			if !ok {
				e = errors.New(errors.ErrCodeInternal, "%v", p)
			}
			res, err = nil, e
		}
	}()

	res = &Result{}
	var tr trail
	tree := m
	for i := range d.cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, imports, err := NewCollector(d.r, d.cfg.Ignore).Collect(tree)
		if err != nil {
			return nil, err
		}
		w := NewRewriter(d.r, names, imports, d.cfg.Registry, d.cfg.RewriteImports)
		tree = w.Rewrite(tree)
		tr.compose(names)

		st := w.Stats()
		st.Iteration = i + 1
		st.Renamed = names.Len()
		st.ImportBindings = len(imports)
		res.Passes = append(res.Passes, st)
		d.cfg.Logger.Debug("pass done",
			"iteration", st.Iteration,
			"renamed", st.Renamed,
			"imports", st.ImportBindings,
			"literals", st.Literals,
			"docstrings", st.Docstrings,
			"fstrings", st.FStrings,
			"dynamic_imports", st.DynamicImports)
	}
	Finalize(tree)
	res.Tree = tree
	res.Translations = tr.translations()
	return res, nil
}

// trail composes the rename maps of successive passes so that each input
// name maps to its name after the last pass.
type trail struct {
	order   []string
	current map[string]string // input name -> current name
	origin  map[string]string // current name -> input name
}

func (t *trail) compose(rm *RenameMap) {
	if t.current == nil {
		t.current = make(map[string]string)
		t.origin = make(map[string]string)
	}
	rm.Each(func(name, repl string) {
		orig, ok := t.origin[name]
		if ok {
			delete(t.origin, name)
		} else {
			orig = name
			t.order = append(t.order, orig)
		}
		t.current[orig] = repl
		t.origin[repl] = orig
	})
}

func (t *trail) translations() []Translation {
	out := make([]Translation, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, Translation{Original: k, Obfuscated: t.current[k]})
	}
	return out
}
