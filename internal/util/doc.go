// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across gemchat packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file replacement (temp file, fsync, rename)
//   - Truncate, TruncateLeft: display-width aware truncation with ellipsis
//   - Preview: single-line truncated preview for logs
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0644)
//	line := util.Preview(prompt, 60)
package util
