package obfuspy

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

func incrementTree() *pyast.Module {
	args := &pyast.Arguments{Args: []*pyast.Arg{{Name: "x"}}}
	body := []pyast.Stmt{&pyast.Return{Value: pyast.NewBinOp(pyast.NewName("x"), pyast.Add, pyast.NewConst(pyast.NewInt(1)))}}
	return &pyast.Module{Body: []pyast.Stmt{&pyast.FunctionDef{Name: "f", Args: args, Body: body}}}
}

// TestObfuscateTree checks renames are reported and the input is untouched.
func TestObfuscateTree(t *testing.T) {
	m := incrementTree()
	out, names, err := ObfuscateTree(context.Background(), m, Config{Seed: 1})
	require.NoError(t, err)

	require.Contains(t, names, "f")
	require.Contains(t, names, "x")
	fn := out.Body[0].(*pyast.FunctionDef)
	assert.Equal(t, names["f"], fn.Name)
	assert.Equal(t, names["x"], fn.Args.Args[0].Name)
	assert.Equal(t, "def f(x):\n    return x + 1\n", pyast.Print(m))
}

// TestObfuscateTreeIgnoreNames checks ignored names survive.
func TestObfuscateTreeIgnoreNames(t *testing.T) {
	out, names, err := ObfuscateTree(context.Background(), incrementTree(), Config{IgnoreNames: []string{"f"}})
	require.NoError(t, err)
	assert.NotContains(t, names, "f")
	assert.True(t, strings.HasPrefix(pyast.Print(out), "def f("))
}

// TestObfuscate runs the whole path through a real interpreter.
func TestObfuscate(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	src := "def greet(name):\n    \"\"\"Say hello.\"\"\"\n    return f'hello {name}'\n\nprint(greet('world'))\n"
	cfg := Config{Seed: 42, Python: "python3"}

	a, err := Obfuscate(context.Background(), src, cfg)
	require.NoError(t, err)
	b, err := Obfuscate(context.Background(), src, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotContains(t, a, "greet")
	assert.NotContains(t, a, "Say hello.")
	assert.Contains(t, a, "print(")
}
