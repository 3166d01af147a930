// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the bounded conversation history between runs.
//
// Two backends implement HistoryStore:
//
//   - FileStore: a single JSON or YAML document, chosen by file extension
//   - SQLiteStore: a turns(seq, role, content) table in a SQLite database
//
// Every backend keeps only the newest MaxTurns turns, both when saving and
// when loading. A missing store loads as an empty history and deleting a
// missing store succeeds.
//
// # Usage
//
//	store, err := storage.Open(storage.Options{Path: "history.json", MaxTurns: 20})
//	history, err := store.Load()
//	...
//	err = store.Save(history)
//
// The store file is owned by a single process. There is no locking.
package storage
