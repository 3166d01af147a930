// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Turn: one persisted conversation entry, spoken by the user or the model
//   - History: the ordered list of turns sent to the API as context
//   - Message: a display-only transcript line in the shell
//
// # Usage
//
// Keep a bounded history:
//
//	h := model.History{}
//	h = h.Append(model.UserTurn("Hello!"))
//	h = h.Append(model.ModelTurn("Hi there."))
//	persisted := h.Window(model.DefaultMaxTurns)
package model
