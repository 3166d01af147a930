// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Name is the command name without the slash (e.g., "help")
	Name string

	// Args are the parsed arguments
	Args []string

	// RawArgs is the unparsed arguments portion
	RawArgs string
}

// Parse splits "/name args..." into its parts. Input that does not start
// with a slash is not a command.
func Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ParseResult{}
	}

	result := ParseResult{IsCommand: true}

	head := input[1:]
	if end := strings.IndexFunc(head, unicode.IsSpace); end >= 0 {
		result.Name = head[:end]
		result.RawArgs = strings.TrimSpace(head[end:])
		result.Args = splitCommandLine(result.RawArgs)
	} else {
		result.Name = head
	}
	return result
}

// UnknownMessage is shown for a slash command the registry does not know.
func UnknownMessage(name string) string {
	return "Unknown command: /" + name + ". Type /help for available commands."
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits a command line into tokens, respecting quotes.
// Supports both single and double quotes for arguments with spaces.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote, inToken bool

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		char := runes[i]

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			inToken = true

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			inToken = true

		case char == '\\' && i+1 < len(runes) && (inDoubleQuote || inSingleQuote):
			// Escape sequence inside quotes
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}

		default:
			current.WriteRune(char)
			inToken = true
		}
	}

	if inToken {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete returns the command names (with slash) that start with the typed
// partial command, in registration order, followed by any extra names that
// match. Input with arguments gets no completions.
func (r *Registry) Complete(input string, extra ...string) []string {
	if !strings.HasPrefix(input, "/") || strings.IndexFunc(input, unicode.IsSpace) >= 0 {
		return nil
	}

	partial := strings.ToLower(input)
	var out []string
	for _, cmd := range r.order {
		name := "/" + cmd.Name
		if strings.HasPrefix(name, partial) {
			out = append(out, name)
		}
	}
	for _, name := range extra {
		if strings.HasPrefix(name, partial) {
			out = append(out, name)
		}
	}
	return out
}

// Names returns every command as "/name", in registration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, cmd := range r.order {
		out = append(out, "/"+cmd.Name)
	}
	return out
}
