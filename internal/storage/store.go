// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore loads and saves a bounded conversation history.
type HistoryStore interface {
	// Load returns the persisted history truncated to the newest turns.
	// A missing store yields an empty history and no error.
	Load() (model.History, error)

	// Save replaces the persisted history with the newest turns of h.
	Save(h model.History) error

	// Delete removes the store. Removing a missing store is not an error.
	Delete() error

	// Path returns the location of the store on disk.
	Path() string
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and configures a HistoryStore.
type Options struct {
	// Backend is "file" (default) or "sqlite".
	Backend string

	// Path is the store location. For the file backend the extension picks
	// the format: .yaml/.yml for YAML, anything else for JSON.
	Path string

	// MaxTurns bounds the persisted history. Zero means model.DefaultMaxTurns.
	MaxTurns int
}

// Open returns the HistoryStore described by opts.
func Open(opts Options) (HistoryStore, error) {
	if opts.Path == "" {
		return nil, errors.New("storage: empty history path")
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = model.DefaultMaxTurns
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		return NewFileStore(opts.Path, opts.MaxTurns), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.Path, opts.MaxTurns), nil
	default:
		return nil, errors.Errorf("storage: unknown backend %q", opts.Backend)
	}
}

// =============================================================================
// FORMATS
// =============================================================================

// Format is the on-disk encoding of a FileStore.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrMalformedStore is returned when the store exists but cannot be parsed.
// Use errors.Is(err, ErrMalformedStore) to check for this error.
var ErrMalformedStore = &StoreError{Message: "malformed history store"}

// StoreError represents a storage-related error.
// It implements the error interface and can be compared using errors.Is.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// malformed wraps cause so that it matches ErrMalformedStore.
func malformed(path string, cause error) error {
	return &malformedError{path: path, cause: cause}
}

type malformedError struct {
	path  string
	cause error
}

func (e *malformedError) Error() string {
	return ErrMalformedStore.Message + " " + e.path + ": " + e.cause.Error()
}

func (e *malformedError) Unwrap() []error {
	return []error{ErrMalformedStore, e.cause}
}
