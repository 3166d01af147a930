// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/model"
)

func makeHistory(n int) model.History {
	h := model.History{}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			h = h.Append(model.UserTurn(fmt.Sprintf("question %d", i)))
		} else {
			h = h.Append(model.ModelTurn(fmt.Sprintf("answer %d", i)))
		}
	}
	return h
}

// backends returns one store of each kind rooted in a fresh temp dir.
func backends(t *testing.T, maxTurns int) map[string]HistoryStore {
	t.Helper()
	dir := t.TempDir()
	return map[string]HistoryStore{
		"json":   NewFileStore(filepath.Join(dir, "history.json"), maxTurns),
		"yaml":   NewFileStore(filepath.Join(dir, "history.yaml"), maxTurns),
		"sqlite": NewSQLiteStore(filepath.Join(dir, "history.db"), maxTurns),
	}
}

// =============================================================================
// CONTRACT TESTS (ALL BACKENDS)
// =============================================================================

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	for name, store := range backends(t, 20) {
		t.Run(name, func(t *testing.T) {
			h, err := store.Load()
			require.NoError(t, err)
			assert.Empty(t, h)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range backends(t, 20) {
		t.Run(name, func(t *testing.T) {
			want := makeHistory(6)
			want = want.Append(model.UserTurn("multi\nline \"quoted\" ünïcode"))

			require.NoError(t, store.Save(want))
			got, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStore_SaveKeepsNewestTurns(t *testing.T) {
	for name, store := range backends(t, 20) {
		t.Run(name, func(t *testing.T) {
			h := makeHistory(22)
			require.NoError(t, store.Save(h))

			got, err := store.Load()
			require.NoError(t, err)
			require.Len(t, got, 20)
			assert.Equal(t, h[2:], got)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	for name, store := range backends(t, 20) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(makeHistory(10)))
			require.NoError(t, store.Save(makeHistory(3)))

			got, err := store.Load()
			require.NoError(t, err)
			assert.Len(t, got, 3)
		})
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	for name, store := range backends(t, 20) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(makeHistory(4)))
			require.NoError(t, store.Delete())

			_, err := os.Stat(store.Path())
			assert.True(t, os.IsNotExist(err), "store should be gone after Delete")

			require.NoError(t, store.Delete(), "deleting a missing store must succeed")

			h, err := store.Load()
			require.NoError(t, err)
			assert.Empty(t, h)
		})
	}
}

// =============================================================================
// FILE STORE TESTS
// =============================================================================

func TestFileStore_LoadTruncatesLongFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	// Written by an older run with a larger limit.
	require.NoError(t, NewFileStore(path, 50).Save(makeHistory(30)))

	got, err := NewFileStore(path, 20).Load()
	require.NoError(t, err)
	require.Len(t, got, 20)
	assert.Equal(t, "question 10", got[0].Content)
}

func TestFileStore_JSONLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path, 20)
	require.NoError(t, store.Save(model.History{model.UserTurn("hi"), model.ModelTurn("hello")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `[
  {
    "role": "user",
    "content": "hi"
  },
  {
    "role": "model",
    "content": "hello"
  }
]
`
	assert.Equal(t, want, string(data))
}

func TestFileStore_EmptyHistoryWritesEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, NewFileStore(path, 20).Save(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestFileStore_YAMLLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yml")
	store := NewFileStore(path, 20)
	assert.Equal(t, FormatYAML, store.Format())
	require.NoError(t, store.Save(model.History{model.UserTurn("hi")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "role: user")
	assert.Contains(t, string(data), "content: hi")
}

func TestFileStore_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"invalid json", "history.json", "{not json"},
		{"json object", "history.json", `{"role":"user"}`},
		{"unknown role", "history.json", `[{"role":"assistant","content":"x"}]`},
		{"invalid yaml", "history.yaml", "role: [unterminated"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0600))

			_, err := NewFileStore(path, 20).Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedStore), "got %v", err)
			assert.True(t, strings.Contains(err.Error(), path))
		})
	}
}

func TestFileStore_EmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

	h, err := NewFileStore(path, 20).Load()
	require.NoError(t, err)
	assert.Empty(t, h)
}

// =============================================================================
// SQLITE STORE TESTS
// =============================================================================

func TestSQLiteStore_NotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("not a sqlite database ", 64)), 0600))

	_, err := NewSQLiteStore(path, 20).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedStore), "got %v", err)
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{Path: filepath.Join(dir, "h.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(Options{Backend: "SQLite", Path: filepath.Join(dir, "h.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = Open(Options{Backend: "redis", Path: filepath.Join(dir, "h")})
	assert.Error(t, err)

	_, err = Open(Options{})
	assert.Error(t, err)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForPath("a/history.json"))
	assert.Equal(t, FormatYAML, FormatForPath("a/history.YAML"))
	assert.Equal(t, FormatYAML, FormatForPath("history.yml"))
	assert.Equal(t, FormatJSON, FormatForPath("history"))
}
