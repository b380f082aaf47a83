package engine

import (
	"fmt"
	"io"
	"runtime"

	"github.com/benzoXdev/obfuspy/pkg/errors"
)

const (
	version = "0.3.0"
	author  = "BenzoXdev"
)

// bannerColor is the colored banner for CLI output.
func bannerColor() string {
	return Cyan("obfuspy") + " | v." + version + " | by " + author + " | " + Gray("https://github.com/BenzoXdev/obfuspy")
}

// PrintBanner prints the banner to w.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, bannerColor())
}

// Version returns the version string.
func Version() string {
	return version
}

// VersionFull returns version with Go and platform info.
func VersionFull() string {
	return fmt.Sprintf("obfuspy v%s (%s/%s, %s)", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// ErrorHint returns a helpful hint for common errors.
func ErrorHint(err error) string {
	if err == nil {
		return ""
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeFileNotFound:
		return "Check the input path. Use absolute paths or run from the project directory."
	case errors.ErrCodeInvalidInput:
		return "The input must be a UTF-8 Python file that parses with the interpreter in use."
	case errors.ErrCodeInvalidConfig:
		return "Check the config file: ignore_names must be a list of strings."
	case errors.ErrCodeFrontend:
		return "Install Python 3.9+ or point --python / OBFUSPY_PYTHON at an interpreter."
	case errors.ErrCodeValidationFailed:
		return "Original and obfuscated scripts behave differently. Add the names involved to ignore_names in the config."
	case errors.ErrCodeUnsupportedConstruct:
		return "The source uses a construct this version cannot rewrite. Please report it with a minimal example."
	case errors.ErrCodeIdentifierExhaustion:
		return "Too many identifiers for the generator. Reduce --iters or split the file."
	}
	return ""
}
