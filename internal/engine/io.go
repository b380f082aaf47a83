package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/benzoXdev/obfuspy/pkg/errors"
)

// maxInputSize is a safety limit to prevent memory exhaustion (100 MB).
const maxInputSize = 100 * 1024 * 1024

// utf8BOM is the UTF-8 Byte Order Mark (EF BB BF).
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes the UTF-8 BOM from the beginning of data if present.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func readAllInput(opts Options) ([]byte, error) {
	if opts.UseStdin {
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(io.LimitReader(bufio.NewReader(in), maxInputSize+1))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading stdin")
		}
		if len(data) > maxInputSize {
			return nil, errors.New(errors.ErrCodeInvalidInput, "input too large (>%d bytes, safety limit)", maxInputSize)
		}
		return stripBOM(data), nil
	}
	fi, err := os.Stat(opts.InputFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", opts.InputFile)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading input")
	}
	if fi.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "input is a directory, not a file: %s", opts.InputFile)
	}
	if fi.Size() > maxInputSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "file too large (%d bytes, max %d)", fi.Size(), maxInputSize)
	}
	data, err := os.ReadFile(opts.InputFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading file")
	}
	return stripBOM(data), nil
}

// validateUTF8 checks that data is non-empty UTF-8 text.
func validateUTF8(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "file is empty")
	}
	if !utf8.Valid(data) {
		return errors.New(errors.ErrCodeInvalidInput, "file is not valid UTF-8, save it as UTF-8 (with or without BOM)")
	}
	return nil
}

// isTreeInput reports whether path names a pre-dumped JSON syntax tree.
func isTreeInput(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func fuzzOutName(base string, i int) string {
	if base == "" {
		base = DefaultOutputFile
	}
	if strings.EqualFold(filepath.Ext(base), ".py") {
		return base[:len(base)-3] + fmt.Sprintf(".v%d.py", i)
	}
	return base + fmt.Sprintf(".v%d.py", i)
}

func requireInOut(opts Options) error {
	if !opts.UseStdin && opts.InputFile == "" {
		return errors.New(errors.ErrCodeInvalidInput, "missing input file (give a path, or - to read stdin)")
	}
	if !opts.UseStdout && opts.OutputFile == "" && !opts.DryRun {
		return errors.New(errors.ErrCodeInvalidInput, "missing output file (give a path, or - to write stdout)")
	}
	return nil
}

// writeOutput writes src to the output file, creating its directory.
func writeOutput(opts Options, src string) error {
	if opts.UseStdout {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		_, err := io.WriteString(out, src)
		return err
	}
	if dir := filepath.Dir(opts.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "creating output directory")
		}
	}
	if err := os.WriteFile(opts.OutputFile, []byte(src), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "writing %s", opts.OutputFile)
	}
	return nil
}
