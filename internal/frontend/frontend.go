// Package frontend turns Python source into a pyast tree by running the
// interpreter's own parser in a subprocess.
package frontend

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/benzoXdev/obfuspy/pkg/errors"
	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

//go:embed dump.py
var dumpScript string

// DefaultTimeout bounds a single parse.
const DefaultTimeout = 30 * time.Second

// EnvPython names the interpreter to use when none is given explicitly.
const EnvPython = "OBFUSPY_PYTHON"

// Parser parses Python source with an external interpreter.
type Parser struct {
	// Python is the interpreter name or path. Empty means FindPython's search.
	Python string
	// Timeout bounds each parse; 0 means DefaultTimeout.
	Timeout time.Duration
}

// FindPython resolves the interpreter: explicit, then $OBFUSPY_PYTHON,
// then python3, then python on PATH.
func FindPython(explicit string) (string, error) {
	if explicit != "" {
		p, err := exec.LookPath(explicit)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFrontend, err, "python interpreter %q not found", explicit)
		}
		return p, nil
	}
	candidates := []string{"python3", "python"}
	if env := os.Getenv(EnvPython); env != "" {
		candidates = append([]string{env}, candidates...)
	}
	for _, name := range candidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeFrontend, "python interpreter not found (tried %s)", strings.Join(candidates, ", "))
}

// Parse returns the syntax tree of src.
func (p *Parser) Parse(ctx context.Context, src []byte) (*pyast.Module, error) {
	python, err := FindPython(p.Python)
	if err != nil {
		return nil, err
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, python, "-c", dumpScript)
	cmd.Stdin = bytes.NewReader(src)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeFrontend, "python parser timed out after %s", timeout)
		}
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, errors.Wrap(errors.ErrCodeFrontend, err, "python parser failed (stderr: %s)", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, errors.Wrap(errors.ErrCodeFrontend, err, "python parser failed")
	}
	return parseOutput(out)
}

type dumpOutput struct {
	Tree  json.RawMessage `json:"tree"`
	Error string          `json:"error"`
}

func parseOutput(out []byte) (*pyast.Module, error) {
	// Only the last line is the dump; site hooks may print before it.
	out = bytes.TrimSpace(out)
	if idx := bytes.LastIndexByte(out, '\n'); idx >= 0 {
		last := bytes.TrimSpace(out[idx+1:])
		if len(last) > 0 && last[0] == '{' {
			out = last
		}
	}
	var res dumpOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFrontend, err, "reading parser output")
	}
	if res.Error != "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "syntax error: %s", res.Error)
	}
	if len(res.Tree) == 0 {
		return nil, errors.New(errors.ErrCodeFrontend, "parser output has no tree")
	}
	return pyast.DecodeJSON(res.Tree)
}
