// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the gemchat command line.
//
// The root command starts an interactive session. With --file or --diff the
// content is submitted for review first. The Bubble Tea shell is used when
// stdout is a terminal; --plain (or a non-terminal stdout) selects a line
// editor REPL with the same routing rules.
//
// # Commands
//
//   - gemchat: interactive session
//   - gemchat config init: write a default config.toml
//   - gemchat config show: print the effective configuration
//   - gemchat config path: print the config file location
//   - gemchat models: list models that support chat
//
// # Exit Codes
//
//   - 0: normal exit, /exit, or interrupt
//   - 1: configuration error at startup or an unrecovered fault
//
// The history is saved on every exit path: normal return, /exit, SIGINT,
// SIGTERM, SIGHUP and panics unwinding through run.
package cli
