package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/benzoXdev/obfuspy/pkg/errors"
)

// DefaultConfigPath is read when no --config is given. It may be missing.
const DefaultConfigPath = "obfuspy.config"

// Environment variables consulted after .env is loaded.
const (
	EnvConfig = "OBFUSPY_CONFIG"
	EnvPython = "OBFUSPY_PYTHON"
)

// Config is the user configuration file.
type Config struct {
	// IgnoreNames are added to the builtin names that are never renamed.
	IgnoreNames []string `yaml:"ignore_names" toml:"ignore_names"`
}

var knownConfigKeys = map[string]bool{"ignore_names": true}

// LoadEnvFiles loads .env from the working directory when present.
// Variables already set in the environment win.
func LoadEnvFiles() error {
	if !fileExists(".env") {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to load .env file")
	}
	return nil
}

// ResolveConfigPath applies the OBFUSPY_CONFIG default to a --config value.
// The returned flag reports whether the file must exist.
func ResolveConfigPath(path string, explicit bool) (string, bool) {
	if explicit && path != "" {
		return path, true
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, true
	}
	return DefaultConfigPath, false
}

// LoadConfig reads the configuration at path. JSON and YAML are accepted;
// a .toml file is read as TOML, and pyproject.toml only through its
// [tool.obfuspy] table. A missing file is an error only when explicit.
// Unrecognized keys come back as warnings.
func LoadConfig(path string, explicit bool) (*Config, []string, error) {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		if explicit {
			return nil, nil, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
		return &Config{}, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading config %s", path)
	}
	if fi.IsDir() {
		return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "config path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading config %s", path)
	}

	var table map[string]any
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		table, err = tomlTable(data, strings.EqualFold(filepath.Base(path), "pyproject.toml"))
	} else {
		err = yaml.Unmarshal(data, &table)
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "malformed config file %s", path)
	}
	return configFromTable(table, path)
}

func tomlTable(data []byte, pyproject bool) (map[string]any, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}
	if tool, ok := doc["tool"].(map[string]any); ok {
		if own, ok := tool["obfuspy"].(map[string]any); ok {
			return own, nil
		}
	}
	if pyproject {
		return nil, nil
	}
	return doc, nil
}

func configFromTable(table map[string]any, path string) (*Config, []string, error) {
	cfg := &Config{}
	var warnings []string
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !knownConfigKeys[k] {
			warnings = append(warnings, fmt.Sprintf("unrecognized config key %q in %s", k, path))
		}
	}

	raw, ok := table["ignore_names"]
	if !ok || raw == nil {
		return cfg, warnings, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "malformed config file %s: ignore_names must be a list of names", path)
	}
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "malformed config file %s: ignore_names[%d] is %T, want a string", path, i, v)
		}
		cfg.IgnoreNames = append(cfg.IgnoreNames, s)
	}
	return cfg, warnings, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
