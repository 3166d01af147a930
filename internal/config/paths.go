// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/subosito/gotenv"
)

// =============================================================================
// PATH HELPERS
// =============================================================================

// HomeDir returns the gemchat home directory: $GEMCHAT_HOME when set,
// otherwise the directory containing the executable.
func HomeDir() (string, error) {
	if home := os.Getenv("GEMCHAT_HOME"); home != "" {
		return filepath.Abs(home)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "could not locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// ConfigPath returns the path to the TOML config file under home.
func ConfigPath(home string) string {
	return filepath.Join(home, "config.toml")
}

// EnvPath returns the path to the .env file under home.
func EnvPath(home string) string {
	return filepath.Join(home, ".env")
}

// InputHistoryPath returns the path of the line editor history for the plain REPL.
func InputHistoryPath(home string) string {
	return filepath.Join(home, ".gemchat_input_history")
}

// LoadEnvFile loads <home>/.env into the process environment. Variables that
// are already set are left alone. A missing file is not an error.
func LoadEnvFile(home string) error {
	path := EnvPath(home)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}
