package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "api_diff_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
old_api:
  url: http://old.example.com
new_api:
  url: http://new.example.com
params:
  - name: id
    value: "1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "GET", cfg.OldAPI.Method)
	assert.Equal(t, "GET", cfg.NewAPI.Method)
	assert.Equal(t, 10, cfg.RateLimitCalls)
	assert.Equal(t, time.Second, cfg.RateLimitPeriod)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, filepath.Dir(path), cfg.BaseDir)
}

func TestLoad_ParsesDurationsAndHeaders(t *testing.T) {
	path := writeConfig(t, `
old_api:
  url: http://old.example.com
  request_method: POST
  headers:
    Authorization: Bearer token
new_api:
  url: http://new.example.com
rate_limit_calls: 3
rate_limit_period: 2s
timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "POST", cfg.OldAPI.Method)
	assert.Equal(t, "Bearer token", cfg.OldAPI.Headers["Authorization"])
	assert.Equal(t, 3, cfg.RateLimitCalls)
	assert.Equal(t, 2*time.Second, cfg.RateLimitPeriod)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_ParamNamesPreserveOrder(t *testing.T) {
	path := writeConfig(t, `
old_api:
  url: http://old.example.com
new_api:
  url: http://new.example.com
params:
  - name: zulu
    value: "1"
  - name: alpha
    values: ["a", "b"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"zulu", "alpha"}, cfg.ParamNames())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing old url", "new_api:\n  url: http://new.example.com\n"},
		{"missing new url", "old_api:\n  url: http://old.example.com\n"},
		{
			"param without source",
			"old_api:\n  url: http://o\nnew_api:\n  url: http://n\nparams:\n  - name: id\n",
		},
		{
			"param with two sources",
			"old_api:\n  url: http://o\nnew_api:\n  url: http://n\nparams:\n  - name: id\n    value: \"1\"\n    values: [\"2\"]\n",
		},
		{
			"column without file",
			"old_api:\n  url: http://o\nnew_api:\n  url: http://n\nparams:\n  - name: id\n    value: \"1\"\n    column: id\n",
		},
		{
			"duplicate parameter",
			"old_api:\n  url: http://o\nnew_api:\n  url: http://n\nparams:\n  - name: id\n    value: \"1\"\n  - name: id\n    value: \"2\"\n",
		},
		{
			"unnamed parameter",
			"old_api:\n  url: http://o\nnew_api:\n  url: http://n\nparams:\n  - value: \"1\"\n",
		},
		{
			"bad timeout",
			"old_api:\n  url: http://o\nnew_api:\n  url: http://n\ntimeout: soon\n",
		},
		{
			"bad rate limit period",
			"old_api:\n  url: http://o\nnew_api:\n  url: http://n\nrate_limit_period: fast\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected a ConfigError, got %T", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}
