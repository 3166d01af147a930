// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the shell.
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /clear: Clear the conversation display (history is kept)
//   - /exit: Exit the application
//   - /model: Show the current model
//
// Commands never touch the conversation history. Clearing history is done
// by submitting /reset, which the session handles itself.
//
// # Usage
//
//	registry := commands.NewRegistry(commands.Options{Model: currentModel})
//	parsed := commands.Parse(input)
//	if parsed.IsCommand {
//	    if cmd, ok := registry.Lookup(parsed.Name); ok {
//	        result := cmd.Action(parsed.Args)
//	        ...
//	    } else {
//	        fmt.Println(commands.UnknownMessage(parsed.Name))
//	    }
//	}
package commands
