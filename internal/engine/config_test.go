package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benzoXdev/obfuspy/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadConfigFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		file     string
		content  string
		want     []string
		warnings int
	}{
		{"json", "obfuspy.config", `{"ignore_names": ["main", "run"]}`, []string{"main", "run"}, 0},
		{"yaml", "obfuspy.yaml", "ignore_names:\n  - main\nverbose: true\n", []string{"main"}, 1},
		{"toml", "obfuspy.toml", "ignore_names = [\"a\", \"b\"]\n", []string{"a", "b"}, 0},
		{"pyproject", "pyproject.toml", "[project]\nname = \"x\"\n\n[tool.obfuspy]\nignore_names = [\"app\"]\nstrict = true\n", []string{"app"}, 1},
		{"pyproject without table", "sub/pyproject.toml", "[project]\nname = \"x\"\n", nil, 0},
		{"empty", "empty.config", "", nil, 0},
		{"null list", "null.config", `{"ignore_names": null}`, nil, 0},
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, dir, tt.file, tt.content)
			cfg, warnings, err := LoadConfig(p, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.IgnoreNames)
			assert.Len(t, warnings, tt.warnings)
		})
	}
}

func TestLoadConfigWarningNamesKey(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.config", `{"ignore_names": [], "ignore_name": ["typo"]}`)
	_, warnings, err := LoadConfig(p, true)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"ignore_name"`)
	assert.Contains(t, warnings[0], p)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing explicit", filepath.Join(dir, "nope.config"), errors.ErrCodeFileNotFound},
		{"malformed", writeFile(t, dir, "bad.config", `{"ignore_names": [`), errors.ErrCodeInvalidConfig},
		{"not a list", writeFile(t, dir, "str.config", `{"ignore_names": "main"}`), errors.ErrCodeInvalidConfig},
		{"not strings", writeFile(t, dir, "num.config", `{"ignore_names": [1]}`), errors.ErrCodeInvalidConfig},
		{"bad toml", writeFile(t, dir, "bad.toml", "ignore_names = [\n"), errors.ErrCodeInvalidConfig},
		{"directory", dir, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadConfig(tt.path, true)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestLoadConfigMissingDefault(t *testing.T) {
	cfg, warnings, err := LoadConfig(filepath.Join(t.TempDir(), DefaultConfigPath), false)
	require.NoError(t, err)
	assert.Empty(t, cfg.IgnoreNames)
	assert.Empty(t, warnings)
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	p, explicit := ResolveConfigPath("", false)
	assert.Equal(t, DefaultConfigPath, p)
	assert.False(t, explicit)

	t.Setenv(EnvConfig, "/etc/obfuspy.yaml")
	p, explicit = ResolveConfigPath("", false)
	assert.Equal(t, "/etc/obfuspy.yaml", p)
	assert.True(t, explicit)

	p, explicit = ResolveConfigPath("mine.config", true)
	assert.Equal(t, "mine.config", p)
	assert.True(t, explicit)
}
