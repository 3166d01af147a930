// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/gemchat/internal/util"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gemchat configuration.
type Config struct {
	// Model is the Gemini model identifier sent with every request.
	Model string `toml:"model"`

	// APIKey is only ever read from the environment.
	APIKey string `toml:"-"`

	API     APIConfig     `toml:"api"`
	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

// APIConfig controls calls to the Gemini API.
type APIConfig struct {
	// RequestTimeout bounds one exchange, including time spent rate limited.
	RequestTimeout Duration `toml:"request_timeout"`
	// RequestsPerMinute caps outgoing requests (0 = unlimited).
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// HistoryConfig controls conversation persistence.
type HistoryConfig struct {
	// Path is the store location. Relative paths are resolved against home.
	Path string `toml:"path"`
	// Backend is "file" or "sqlite".
	Backend string `toml:"backend"`
	// MaxTurns is the number of turns kept on disk.
	MaxTurns int `toml:"max_turns"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	// Path is the log file. Relative paths are resolved against home.
	Path string `toml:"path"`
	// Level is a zerolog level name (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `toml:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups"`
}

// UIConfig contains user interface configuration.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`
	// RenderMarkdown renders replies with glamour in the interactive shell.
	RenderMarkdown bool `toml:"render_markdown"`
}

// Duration is a time.Duration that reads and writes as a TOML string ("2m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Model: DefaultModel,

		API: APIConfig{
			RequestTimeout:    Duration{2 * time.Minute},
			RequestsPerMinute: 15, // Gemini free tier
		},

		History: HistoryConfig{
			Path:     "history.json",
			Backend:  "file",
			MaxTurns: 20,
		},

		Log: LogConfig{
			Path:       "gemchat.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},

		UI: UIConfig{
			Theme:          "auto",
			RenderMarkdown: true,
		},
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}

	// API
	if cfg.API.RequestTimeout.Duration == 0 {
		cfg.API.RequestTimeout = defaults.API.RequestTimeout
	}

	// History
	if cfg.History.Path == "" {
		cfg.History.Path = defaults.History.Path
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = defaults.History.Backend
	}
	if cfg.History.MaxTurns == 0 {
		cfg.History.MaxTurns = defaults.History.MaxTurns
	}

	// Log
	if cfg.Log.Path == "" {
		cfg.Log.Path = defaults.Log.Path
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the TOML file at path (a missing file means defaults), applies
// environment overrides, resolves relative paths against home and validates
// the result. The API key is not required here; see RequireAPIKey.
func Load(path, home string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := LoadTOML(cfg, path); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	cfg.ResolvePaths(home)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path over cfg. Keys absent from the file
// keep the values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.WithStack(err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.Errorf("decode %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ResolvePaths makes relative history and log paths absolute under home.
func (c *Config) ResolvePaths(home string) {
	if home == "" {
		return
	}
	if c.History.Path != "" && !filepath.IsAbs(c.History.Path) {
		c.History.Path = filepath.Join(home, c.History.Path)
	}
	if c.Log.Path != "" && !filepath.IsAbs(c.Log.Path) {
		c.Log.Path = filepath.Join(home, c.Log.Path)
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path. The API key is never written.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "# gemchat configuration file")
	fmt.Fprintln(&buf, "# The API key is read from GOOGLE_API_KEY, never from this file.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config")
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrMissingAPIKey is returned when no API key is available.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY is not set (export it or add it to the .env file next to gemchat)")

// RequireAPIKey reports ErrMissingAPIKey when the key is empty.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, ValidationError{Field: "model", Message: "must not be empty"})
	}

	// API
	if c.API.RequestTimeout.Duration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "api.request_timeout",
			Message: "must be positive",
		})
	} else if c.API.RequestTimeout.Duration > 30*time.Minute {
		errs = append(errs, ValidationError{
			Field:   "api.request_timeout",
			Message: fmt.Sprintf("%s exceeds maximum of 30m", c.API.RequestTimeout.Duration),
		})
	}
	if c.API.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.requests_per_minute",
			Message: "must be 0 (unlimited) or positive",
		})
	}

	// History
	switch strings.ToLower(c.History.Backend) {
	case "file", "sqlite":
	default:
		errs = append(errs, ValidationError{
			Field:   "history.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite", c.History.Backend),
		})
	}
	if c.History.MaxTurns < 1 || c.History.MaxTurns > 1000 {
		errs = append(errs, ValidationError{
			Field:   "history.max_turns",
			Message: fmt.Sprintf("%d out of range (1-1000)", c.History.MaxTurns),
		})
	}

	// Log
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown level '%s'", c.Log.Level),
		})
	}
	if c.Log.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{Field: "log.max_size_mb", Message: "must be at least 1"})
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "log.max_backups", Message: "must not be negative"})
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GOOGLE_API_KEY: the Gemini API key
//   - GEMCHAT_MODEL: overrides model
//   - GEMCHAT_HISTORY_PATH: overrides history.path
func (c *Config) ApplyEnvOverrides() {
	// GOOGLE_API_KEY
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.APIKey = key
	}

	// GEMCHAT_MODEL
	if model := os.Getenv("GEMCHAT_MODEL"); model != "" {
		c.Model = model
	}

	// GEMCHAT_HISTORY_PATH
	if path := os.Getenv("GEMCHAT_HISTORY_PATH"); path != "" {
		c.History.Path = path
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as TOML. The API key is never included.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// Global returns the live configuration. Before SetGlobal is called it
// returns the defaults. Thread-safe.
func Global() *Config {
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	if globalConfig == nil {
		return Default()
	}
	return globalConfig
}

// SetGlobal replaces the live configuration. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	SetGlobal(nil)
}
