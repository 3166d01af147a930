// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Truncate shortens s to at most maxWidth terminal columns, appending "..."
// when something was cut. Wide (CJK, emoji) runes count as two columns.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// Preview flattens s onto one line and truncates it for log fields and
// one-line UI summaries.
func Preview(s string, maxWidth int) string {
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(s, maxWidth)
}

// TruncateLeft keeps the right-most maxWidth columns of s, prefixing "..."
// when something was cut. Used for long paths where the tail matters most.
func TruncateLeft(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.TruncateLeft(s, runewidth.StringWidth(s)-maxWidth, "")
	}
	cut := runewidth.StringWidth(s) - (maxWidth - 3)
	return "..." + runewidth.TruncateLeft(s, cut, "")
}
