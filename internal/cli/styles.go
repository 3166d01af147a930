// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// Styles for plain (non-TUI) output.
var (
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	userStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	mutedStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)
)
