// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session binds the conversation history to a live model connection.
//
// A Manager is either Fresh (no connection) or Active (connection seeded with
// the history at the moment it was opened). The first exchange after startup
// or after a reset opens the connection; reset clears the history, deletes the
// persisted store and drops the connection without contacting the API.
//
// At most one exchange runs at a time. A second Exchange while one is in
// flight fails with ErrBusy instead of interleaving on the connection.
//
// # Key Types
//
//   - Manager: history, connection and persistence for one run of gemchat
//   - Connector: opens a Conversation seeded with history
//   - Conversation: sends one prompt and returns the reply
//
// # Usage
//
//	mgr, err := session.Open(session.Options{Store: store, Connector: conn})
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close() // saves the newest turns exactly once
//
//	reply := mgr.Submit(ctx, "fix this loop", nil)
package session
