// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for gemchat.
//
// Settings come from a TOML file, an optional .env file, and the process
// environment, with sensible defaults for everything except the API key.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Request timeout and rate limit for the Gemini API
//   - HistoryConfig: Where and how the conversation history is persisted
//   - LogConfig: Log file location, level, and rotation
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the caller)
//   - Environment variables (GOOGLE_API_KEY, GEMCHAT_*)
//   - <home>/.env (never overrides variables already set)
//   - <home>/config.toml
//   - Built-in defaults
//
// <home> is $GEMCHAT_HOME when set, otherwise the directory holding the
// executable.
//
// # Usage
//
//	home, _ := config.HomeDir()
//	_ = config.LoadEnvFile(home)
//	cfg, err := config.Load(config.ConfigPath(home), home)
//	if err != nil {
//	    return err
//	}
//	if err := cfg.RequireAPIKey(); err != nil {
//	    return err
//	}
package config
