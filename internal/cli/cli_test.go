package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benzoXdev/obfuspy/internal/engine"
)

// incrementDump is `def f(x): return x + 1` as dumped by the front-end.
const incrementDump = `{"tree": {"_type": "Module", "body": [
 {"_type": "FunctionDef", "lineno": 1, "name": "f",
  "args": {"_type": "arguments", "posonlyargs": [], "args": [{"_type": "arg", "arg": "x", "annotation": null}],
           "vararg": null, "kwonlyargs": [], "kw_defaults": [], "kwarg": null, "defaults": []},
  "body": [{"_type": "Return", "lineno": 1, "value": {"_type": "BinOp",
            "left": {"_type": "Name", "id": "x", "ctx": {"_type": "Load"}},
            "op": {"_type": "Add"},
            "right": {"_type": "Constant", "value": {"t": "int", "v": "1"}, "kind": null}}}],
  "decorator_list": [], "returns": null, "type_comment": null}
]}}`

func writeDump(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(incrementDump), 0o644))
	return path
}

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(engine.EnvConfig, "")
	var logs, out, errOut bytes.Buffer
	root := New(&logs, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String() + logs.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRootWritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeDump(t, filepath.Join(dir, "inc.json"))
	out := filepath.Join(dir, "out.py")

	_, _, err := execute(t, in, out, "--seed", "3", "-q")
	require.NoError(t, err)
	first := readFile(t, out)
	assert.True(t, strings.HasPrefix(first, "def "))
	assert.NotContains(t, first, "def f(")

	_, _, err = execute(t, in, out, "--seed", "3", "-q")
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, out))
}

func TestRootStdoutWithTranslations(t *testing.T) {
	in := writeDump(t, filepath.Join(t.TempDir(), "inc.json"))

	stdout, stderr, err := execute(t, in, "-", "--show-translations")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "def "))
	assert.Contains(t, stderr, "f = ")
	assert.Contains(t, stderr, "x = ")
	assert.Contains(t, stderr, "--seed 0")
}

func TestRootRejectsMissingConfig(t *testing.T) {
	dir := t.TempDir()
	in := writeDump(t, filepath.Join(dir, "inc.json"))

	_, _, err := execute(t, in, filepath.Join(dir, "out.py"), "--config", filepath.Join(dir, "nope.yaml"), "-q")
	require.Error(t, err)
	assert.NotEmpty(t, engine.ErrorHint(err))
}

func TestBatchMatchesSingleRun(t *testing.T) {
	dir := t.TempDir()
	a := writeDump(t, filepath.Join(dir, "a", "inc.json"))
	b := writeDump(t, filepath.Join(dir, "b", "other.json"))
	outDir := filepath.Join(dir, "out")
	single := filepath.Join(dir, "single.py")

	_, _, err := execute(t, "batch", "--out-dir", outDir, "--seed", "5", "-j", "2", a, b)
	require.NoError(t, err)
	_, _, err = execute(t, a, single, "--seed", "5", "-q")
	require.NoError(t, err)

	assert.Equal(t, readFile(t, single), readFile(t, filepath.Join(outDir, "inc.py")))
	assert.FileExists(t, filepath.Join(outDir, "other.py"))
}

func TestBatchOutputs(t *testing.T) {
	outs, err := batchOutputs([]string{"src/a.py", "trees/b.json"}, "dist")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("dist", "a.py"), filepath.Join("dist", "b.py")}, outs)

	_, err = batchOutputs([]string{"x/a.py", "y/a.py"}, "dist")
	assert.Error(t, err)
	_, err = batchOutputs([]string{"-"}, "dist")
	assert.Error(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	in := writeDump(t, filepath.Join(t.TempDir(), "inc.json"))

	stdout, _, err := execute(t, "analyze", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Functions: 1")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "obfuspy v"+engine.Version())
}

func TestFlagsToOptions(t *testing.T) {
	f := newObfuscateFlags()
	cmd := &cobra.Command{}
	f.register(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--random-seed", "--config", "c.yaml", "--iters", "3", "--rewrite-imports",
		"--validate-args", `--name "a b"`, "--fuzz", "2",
	}))
	cmd.SetContext(context.Background())

	opts := f.options(cmd, "-", "-")
	assert.True(t, opts.UseStdin)
	assert.True(t, opts.UseStdout)
	assert.Empty(t, opts.InputFile)
	assert.Empty(t, opts.OutputFile)
	assert.False(t, opts.Seeded)
	assert.True(t, opts.ConfigExplicit)
	assert.Equal(t, "c.yaml", opts.ConfigPath)
	assert.Equal(t, 3, opts.Iterations)
	assert.True(t, opts.RewriteImports)
	assert.Equal(t, `--name "a b"`, opts.ValidateArgs)
	assert.Equal(t, 2, opts.Fuzz)
	assert.Equal(t, "strict", opts.ValidateStderr)

	opts = newObfuscateFlags().options(cmd, "in.py", "out.py")
	assert.True(t, opts.Seeded)
	assert.Equal(t, "in.py", opts.InputFile)
}
