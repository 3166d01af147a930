// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load looks at for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GOOGLE_API_KEY", "GEMCHAT_MODEL", "GEMCHAT_HISTORY_PATH", "GEMCHAT_HOME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULT / LOAD TESTS
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, 2*time.Minute, cfg.API.RequestTimeout.Duration)
	assert.Equal(t, 15, cfg.API.RequestsPerMinute)
	assert.Equal(t, 20, cfg.History.MaxTurns)
	assert.Equal(t, "file", cfg.History.Backend)
	assert.True(t, cfg.UI.RenderMarkdown)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	cfg, err := Load(ConfigPath(home), home)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, filepath.Join(home, "history.json"), cfg.History.Path)
	assert.Equal(t, filepath.Join(home, "gemchat.log"), cfg.Log.Path)
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeFile(t, ConfigPath(home), `
model = "gemini-1.5-pro"

[api]
request_timeout = "45s"
requests_per_minute = 0

[history]
path = "/var/tmp/gemchat/history.yaml"
max_turns = 40

[ui]
render_markdown = false
`)

	cfg, err := Load(ConfigPath(home), home)
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-pro", cfg.Model)
	assert.Equal(t, 45*time.Second, cfg.API.RequestTimeout.Duration)
	assert.Equal(t, 0, cfg.API.RequestsPerMinute)
	assert.Equal(t, "/var/tmp/gemchat/history.yaml", cfg.History.Path)
	assert.Equal(t, 40, cfg.History.MaxTurns)
	assert.False(t, cfg.UI.RenderMarkdown)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "file", cfg.History.Backend)
}

func TestLoad_UnknownKey(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeFile(t, ConfigPath(home), "modle = \"typo\"\n")

	_, err := Load(ConfigPath(home), home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modle")
}

func TestLoad_InvalidTOML(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeFile(t, ConfigPath(home), "model = \n")

	_, err := Load(ConfigPath(home), home)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeFile(t, ConfigPath(home), `
[history]
backend = "postgres"
`)

	_, err := Load(ConfigPath(home), home)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs), "got %T", err)
	assert.Equal(t, "history.backend", verrs[0].Field)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeFile(t, ConfigPath(home), "model = \"from-file\"\n")

	t.Setenv("GOOGLE_API_KEY", "secret-key")
	t.Setenv("GEMCHAT_MODEL", "from-env")
	t.Setenv("GEMCHAT_HISTORY_PATH", "elsewhere.json")

	cfg, err := Load(ConfigPath(home), home)
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.APIKey)
	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, filepath.Join(home, "elsewhere.json"), cfg.History.Path)
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestRequireAPIKey(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrMissingAPIKey)

	cfg.APIKey = "   "
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrMissingAPIKey)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty model", func(c *Config) { c.Model = " " }, "model"},
		{"zero timeout", func(c *Config) { c.API.RequestTimeout.Duration = 0 }, "api.request_timeout"},
		{"huge timeout", func(c *Config) { c.API.RequestTimeout.Duration = time.Hour }, "api.request_timeout"},
		{"negative rpm", func(c *Config) { c.API.RequestsPerMinute = -1 }, "api.requests_per_minute"},
		{"bad backend", func(c *Config) { c.History.Backend = "s3" }, "history.backend"},
		{"zero turns", func(c *Config) { c.History.MaxTurns = 0 }, "history.max_turns"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"zero log size", func(c *Config) { c.Log.MaxSizeMB = 0 }, "log.max_size_mb"},
		{"negative backups", func(c *Config) { c.Log.MaxBackups = -2 }, "log.max_backups"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	assert.Equal(t, "a: bad; b: worse", errs.Error())
	assert.Equal(t, "no validation errors", ValidateErrors{}.Error())
}

// =============================================================================
// SAVE / STRING TESTS
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	cfg := Default()
	cfg.Model = "gemini-1.5-flash"
	cfg.APIKey = "must-not-be-written"
	cfg.API.RequestTimeout.Duration = 90 * time.Second
	cfg.History.Backend = "sqlite"
	require.NoError(t, SaveTOML(cfg, ConfigPath(home)))

	data, err := os.ReadFile(ConfigPath(home))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "must-not-be-written")
	assert.True(t, strings.HasPrefix(string(data), "# gemchat configuration file"))

	loaded, err := Load(ConfigPath(home), home)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", loaded.Model)
	assert.Equal(t, 90*time.Second, loaded.API.RequestTimeout.Duration)
	assert.Equal(t, "sqlite", loaded.History.Backend)
	assert.Empty(t, loaded.APIKey)
}

func TestConfig_StringOmitsKey(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "super-secret"
	out := cfg.String()
	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, `model = "gemini-2.0-flash"`)
}

// =============================================================================
// ENV FILE / HOME TESTS
// =============================================================================

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeFile(t, EnvPath(home), "GOOGLE_API_KEY=from-dotenv\nGEMCHAT_MODEL=dotenv-model\n")
	t.Setenv("GEMCHAT_MODEL", "already-set")

	require.NoError(t, LoadEnvFile(home))
	t.Cleanup(func() { os.Unsetenv("GOOGLE_API_KEY") })

	assert.Equal(t, "from-dotenv", os.Getenv("GOOGLE_API_KEY"))
	assert.Equal(t, "already-set", os.Getenv("GEMCHAT_MODEL"), ".env must not override the environment")
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(t.TempDir()))
}

func TestHomeDir_FromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEMCHAT_HOME", dir)

	home, err := HomeDir()
	require.NoError(t, err)
	assert.Equal(t, dir, home)
}

func TestHomeDir_Executable(t *testing.T) {
	clearEnv(t)
	home, err := HomeDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(home))
}

// =============================================================================
// GLOBAL TESTS
// =============================================================================

func TestGlobal_DefaultsBeforeSet(t *testing.T) {
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	assert.Equal(t, DefaultModel, Global().Model)

	cfg := Default()
	cfg.Model = "swapped"
	SetGlobal(cfg)
	assert.Equal(t, "swapped", Global().Model)
}

// TestConfig_ConcurrentAccess tests that Global and SetGlobal can be called
// concurrently. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
