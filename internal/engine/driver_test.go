package engine

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benzoXdev/obfuspy/pkg/errors"
	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

func runDriver(t *testing.T, m *pyast.Module, seed int64, cfg DriverConfig) *Result {
	t.Helper()
	res, err := NewDriver(rand.New(rand.NewSource(seed)), cfg).Run(context.Background(), m)
	require.NoError(t, err)
	return res
}

// TestDriverIncrement obfuscates `def f(x): return x + 1` and checks the
// result structurally and numerically.
func TestDriverIncrement(t *testing.T) {
	res := runDriver(t, incrementModule(), 0, DriverConfig{Iterations: 1})

	require.Len(t, res.Tree.Body, 1)
	fn, ok := res.Tree.Body[0].(*pyast.FunctionDef)
	require.True(t, ok)
	assert.NotEqual(t, "f", fn.Name)
	require.Len(t, fn.Args.Args, 1)
	param := fn.Args.Args[0].Name
	assert.NotEqual(t, "x", param)

	require.Len(t, fn.Body, 1)
	sum := fn.Body[0].(*pyast.Return).Value.(*pyast.BinOp)
	assert.Equal(t, pyast.Add, sum.Op)
	assert.Equal(t, param, sum.Left.(*pyast.Name).ID)
	requireSameValue(t, pyast.NewInt(1), evalConst(t, sum.Right))

	assert.Equal(t, []Translation{{"f", fn.Name}, {"x", param}}, res.Translations)
	require.Len(t, res.Passes, 1)
	assert.Equal(t, PassStats{Iteration: 1, Renamed: 2, Literals: 1}, res.Passes[0])
}

func TestDriverReproducible(t *testing.T) {
	cfg := DriverConfig{Iterations: 3, RewriteImports: true}
	a := runDriver(t, sampleModule(), 42, cfg)
	b := runDriver(t, sampleModule(), 42, cfg)
	assert.Equal(t, pyast.Print(a.Tree), pyast.Print(b.Tree))
	assert.Equal(t, a.Translations, b.Translations)

	c := runDriver(t, sampleModule(), 43, cfg)
	assert.NotEqual(t, pyast.Print(a.Tree), pyast.Print(c.Tree))
}

// TestDriverComposesTranslations checks that after several passes each
// input name maps to its name in the final tree.
func TestDriverComposesTranslations(t *testing.T) {
	res := runDriver(t, incrementModule(), 7, DriverConfig{Iterations: 4})
	fn := res.Tree.Body[0].(*pyast.FunctionDef)
	require.Len(t, res.Translations, 2)
	assert.Equal(t, Translation{"f", fn.Name}, res.Translations[0])
	assert.Equal(t, Translation{"x", fn.Args.Args[0].Name}, res.Translations[1])
	assert.Len(t, res.Passes, 4)
}

func TestDriverHoistsImports(t *testing.T) {
	m := mod(
		assign("y", num(1)),
		importStmt("os"),
		exprStmt(pyast.NewCall("print", name("y"))),
		&pyast.ImportFrom{Module: "sys", Names: []*pyast.Alias{{Name: "argv"}}},
		importStmt("json"),
	)
	res := runDriver(t, m, 1, DriverConfig{Iterations: 1, RewriteImports: true, Registry: NewRegistry()})

	var kinds []string
	for _, s := range res.Tree.Body {
		switch s := s.(type) {
		case *pyast.Import:
			kinds = append(kinds, "import")
		case *pyast.ImportFrom:
			kinds = append(kinds, "from")
		case *pyast.Assign:
			if dynamicImportTarget(s) != "" {
				kinds = append(kinds, "dynamic:"+dynamicImportTarget(s))
			} else {
				kinds = append(kinds, "assign")
			}
		default:
			kinds = append(kinds, "other")
		}
	}
	assert.Equal(t, []string{"dynamic:os", "from", "dynamic:json", "assign", "other"}, kinds)
	assert.Equal(t, 2, res.Passes[0].DynamicImports)
}

func TestHoistImportsStable(t *testing.T) {
	a, b := assign("a", num(1)), assign("b", num(2))
	i1, i2 := importStmt("x"), importStmt("y")
	m := mod(a, i1, b, i2)
	HoistImports(m)
	assert.Equal(t, []pyast.Stmt{i1, i2, a, b}, m.Body)
}

func TestFinalizeFillsLines(t *testing.T) {
	s1 := &pyast.Pass{Loc: pyast.Loc{Line: 3}}
	s2 := &pyast.Pass{}
	m := mod(s1, s2)
	Finalize(m)
	assert.Equal(t, 3, pyast.LineOf(s2))
}

func TestDriverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDriver(rand.New(rand.NewSource(1)), DriverConfig{Iterations: 1}).Run(ctx, incrementModule())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDriverKeepsInput(t *testing.T) {
	m := sampleModule()
	before := pyast.Print(m)
	runDriver(t, m, 5, DriverConfig{Iterations: 2, RewriteImports: true})
	assert.Equal(t, before, pyast.Print(m))
}

func TestDriverIgnoreSet(t *testing.T) {
	res := runDriver(t, incrementModule(), 1, DriverConfig{Iterations: 1, Ignore: NewIgnoreSet("f")})
	assert.Equal(t, "f", res.Tree.Body[0].(*pyast.FunctionDef).Name)
	require.Len(t, res.Translations, 1)
	assert.Equal(t, "x", res.Translations[0].Original)
}

// TestDriverRecoversPanics checks that a panic inside a rewrite becomes the
// returned error, keeping its code when it carries one.
func TestDriverRecoversPanics(t *testing.T) {
	tests := []struct {
		name  string
		value any
		code  errors.Code
	}{
		{"coded error", errors.New(errors.ErrCodeUnsupportedConstruct, "cannot rewrite %s", "1"), errors.ErrCodeUnsupportedConstruct},
		{"plain value", "boom", errors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.Register(ShapeInt, func(*rand.Rand, *pyast.Constant) pyast.Expr { panic(tt.value) })
			d := NewDriver(rand.New(rand.NewSource(1)), DriverConfig{Iterations: 1, Registry: reg})

			res, err := d.Run(context.Background(), incrementModule())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.code), err.Error())
		})
	}
}

func TestDriverRejectsIterations(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewDriver(rand.New(rand.NewSource(1)), DriverConfig{Iterations: n}).Run(context.Background(), incrementModule())
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "iterations %d", n)
	}
}

// TestDriverLogsSetup checks the debug line describing the ignore set and
// the rewrite table.
func TestDriverLogsSetup(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	runDriver(t, incrementModule(), 1, DriverConfig{Iterations: 1, Ignore: NewIgnoreSet("f"), Logger: logger})

	out := buf.String()
	assert.Contains(t, out, "driver start")
	assert.Contains(t, out, "ignored=")
	assert.Contains(t, out, "char=2")
	assert.Contains(t, out, "string=1")
}
