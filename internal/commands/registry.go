// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Result is what a command asks the shell to do.
type Result struct {
	// Output is shown to the user when non-empty.
	Output string

	// ClearScreen asks the shell to clear the transcript.
	ClearScreen bool

	// Quit asks the shell to return so deferred shutdown work runs.
	Quit bool
}

// Action executes a command with its parsed arguments.
type Action func(args []string) Result

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the command name without the slash (e.g., "help")
	Name string

	// Description is shown in help and completion
	Description string

	// Action runs the command
	Action Action
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Options configures the built-in commands.
type Options struct {
	// Model returns the configured model identifier. It is called on every
	// /model so that configuration reloads are reflected.
	Model func() string

	// ExtraHelp lines are appended to /help output after the commands.
	ExtraHelp []string
}

// Registry holds commands in registration order.
type Registry struct {
	order     []*Command
	commands  map[string]*Command
	extraHelp []string
}

// NewRegistry creates a registry with the built-in commands.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		commands:  make(map[string]*Command),
		extraHelp: opts.ExtraHelp,
	}
	r.registerBuiltins(opts)
	return r
}

// Register adds a command. Registering a name twice replaces the action but
// keeps the original position.
func (r *Registry) Register(cmd *Command) {
	if existing, ok := r.commands[cmd.Name]; ok {
		*existing = *cmd
		return
	}
	r.commands[cmd.Name] = cmd
	r.order = append(r.order, cmd)
}

// Lookup finds a command by exact name (without the slash).
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// All returns the commands in registration order.
func (r *Registry) All() []*Command {
	out := make([]*Command, len(r.order))
	copy(out, r.order)
	return out
}

// Help returns one "/name - description" line per command.
func (r *Registry) Help() string {
	lines := make([]string, 0, len(r.order)+len(r.extraHelp))
	for _, cmd := range r.order {
		lines = append(lines, fmt.Sprintf("/%s - %s", cmd.Name, cmd.Description))
	}
	lines = append(lines, r.extraHelp...)
	return strings.Join(lines, "\n")
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

// ClearedMessage is the output of /clear.
const ClearedMessage = "Conversation display cleared."

func (r *Registry) registerBuiltins(opts Options) {
	model := opts.Model
	if model == nil {
		model = func() string { return "" }
	}

	r.Register(&Command{
		Name:        "help",
		Description: "Show available commands",
		Action: func([]string) Result {
			return Result{Output: r.Help()}
		},
	})

	r.Register(&Command{
		Name:        "clear",
		Description: "Clear the conversation display",
		Action: func([]string) Result {
			return Result{Output: ClearedMessage, ClearScreen: true}
		},
	})

	r.Register(&Command{
		Name:        "exit",
		Description: "Exit the application",
		Action: func([]string) Result {
			return Result{Quit: true}
		},
	})

	r.Register(&Command{
		Name:        "model",
		Description: "Show current AI model",
		Action: func([]string) Result {
			return Result{Output: fmt.Sprintf("Current model: %s (Gemini)", model())}
		},
	})
}
