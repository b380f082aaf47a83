package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/benzoXdev/obfuspy/internal/frontend"
	"github.com/benzoXdev/obfuspy/pkg/errors"
)

const defaultValidateTimeout = 30 * time.Second

// runValidate executes the original and obfuscated files and compares
// stdout, stderr and exit code.
func runValidate(ctx context.Context, opts Options) error {
	if opts.UseStdin || opts.InputFile == "" || isTreeInput(opts.InputFile) {
		return errors.New(errors.ErrCodeInvalidInput, "--validate requires a Python source file as input")
	}
	if opts.UseStdout || opts.OutputFile == "" {
		return errors.New(errors.ErrCodeInvalidInput, "--validate requires an output file")
	}
	python, err := frontend.FindPython(opts.Python)
	if err != nil {
		return err
	}
	args := buildValidateArgs(opts.ValidateArgs)
	timeout := time.Duration(opts.ValidateTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultValidateTimeout
	}
	ignoreStderr := strings.EqualFold(strings.TrimSpace(opts.ValidateStderr), "ignore")

	origOut, origErr, origCode, err := runScript(ctx, python, opts.InputFile, args, timeout)
	if err != nil {
		return errors.Wrap(errors.ErrCodeValidationFailed, err, "running original script")
	}
	obfOut, obfErr, obfCode, err := runScript(ctx, python, opts.OutputFile, args, timeout)
	if err != nil {
		return errors.Wrap(errors.ErrCodeValidationFailed, err, "running obfuscated script")
	}

	stderrMatch := ignoreStderr || bytes.Equal(origErr, obfErr)
	ok := origCode == obfCode && bytes.Equal(origOut, obfOut) && stderrMatch
	if !opts.Quiet {
		w := opts.Stderr
		if ok {
			fmt.Fprintf(w, "%s PASS (exit %d, stdout/stderr match)\n", Green("Validate:"), origCode)
		} else {
			fmt.Fprintf(w, "%s FAIL\n", Red("Validate:"))
			if origCode != obfCode {
				fmt.Fprintf(w, "  exit: original=%d obfuscated=%d\n", origCode, obfCode)
			}
			if !bytes.Equal(origOut, obfOut) {
				fmt.Fprintf(w, "  stdout differs (orig %d bytes, obf %d bytes)\n", len(origOut), len(obfOut))
			}
			if !stderrMatch {
				fmt.Fprintf(w, "  stderr differs (orig %d bytes, obf %d bytes)\n", len(origErr), len(obfErr))
			}
		}
	}
	if !ok {
		return errors.New(errors.ErrCodeValidationFailed, "output or exit code differs")
	}
	return nil
}

func buildValidateArgs(s string) []string {
	if s == "" {
		return nil
	}
		var out []string
	var buf strings.Builder
	inQuote := false
	var quote rune
	for _, r := range s {
		switch {
		case r == '"' || r == '\'':
			if !inQuote {
				inQuote = true
				quote = r
			} else if r == quote {
				inQuote = false
				out = append(out, buf.String())
				buf.Reset()
			} else {
				// Mismatched quote inside a quoted string is literal
				buf.WriteRune(r)
			}
		case inQuote:
			buf.WriteRune(r)
		case r == ' ' || r == '\t':
			if buf.Len() > 0 {
				out = append(out, buf.String())
				buf.Reset()
			}
		default:
			buf.WriteRune(r)
		}
	}
	// An unclosed quote flushes what it collected
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}

// runScript runs one Python file with a fixed hash seed and UTF-8 stdio, so
// that two runs of equivalent programs print the same bytes. Tracebacks name
// the file, so the script runs from its own directory under a fixed name.
func runScript(ctx context.Context, python, scriptPath string, scriptArgs []string, timeout time.Duration) (stdout, stderr []byte, exitCode int, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, nil, -1, err
	}
	dir, err := os.MkdirTemp("", "obfuspy-validate-*")
	if err != nil {
		return nil, nil, -1, err
	}
	defer os.RemoveAll(dir)
	script := filepath.Join(dir, "main.py")
	if err := os.WriteFile(script, src, 0o600); err != nil {
		return nil, nil, -1, err
	}

	cmd := exec.CommandContext(ctx, python, append([]string{script}, scriptArgs...)...)
	cmd.Env = append(os.Environ(), "PYTHONHASHSEED=0", "PYTHONIOENCODING=utf-8", "PYTHONDONTWRITEBYTECODE=1")
	if abs, err := filepath.Abs(scriptPath); err == nil {
		// Sibling modules stay importable from the copy.
		cmd.Dir = filepath.Dir(abs)
		cmd.Env = append(cmd.Env, "PYTHONPATH="+cmd.Dir)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, nil, -1, fmt.Errorf("timed out after %s", timeout)
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitCode(), nil
		}
		return nil, nil, -1, runErr
	}
	return outBuf.Bytes(), errBuf.Bytes(), 0, nil
}
