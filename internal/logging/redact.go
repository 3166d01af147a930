// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"regexp"

	"github.com/jeranaias/gemchat/internal/util"
)

// secretPatterns match credentials that may show up in prompts or errors.
var secretPatterns = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`), "[GOOGLE_KEY_REDACTED]"},
	{regexp.MustCompile(`ya29\.[0-9A-Za-z_\-]+`), "[OAUTH_TOKEN_REDACTED]"},
	{regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,}`), "[GITHUB_TOKEN_REDACTED]"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "[AWS_KEY_REDACTED]"},
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-_.]+`), "Bearer [TOKEN_REDACTED]"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*\S+`), "[PASSWORD_REDACTED]"},
}

// Redact replaces known secret formats in s.
func Redact(s string) string {
	for _, sp := range secretPatterns {
		s = sp.pattern.ReplaceAllString(s, sp.replace)
	}
	return s
}

// Preview returns a redacted single-line preview of s for debug logs.
func Preview(s string) string {
	return util.Preview(Redact(s), 60)
}
