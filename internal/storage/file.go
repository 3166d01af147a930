// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/util"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps the history in a single JSON or YAML document.
type FileStore struct {
	path     string
	format   Format
	maxTurns int
}

// NewFileStore creates a file store at path. The format follows the extension.
func NewFileStore(path string, maxTurns int) *FileStore {
	if maxTurns <= 0 {
		maxTurns = model.DefaultMaxTurns
	}
	return &FileStore{
		path:     path,
		format:   FormatForPath(path),
		maxTurns: maxTurns,
	}
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Format returns the encoding used for the file.
func (s *FileStore) Format() Format {
	return s.format
}

// Load reads the history file.
func (s *FileStore) Load() (model.History, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.History{}, nil
		}
		return nil, errors.Wrapf(err, "read history %s", s.path)
	}

	// An empty file is treated like a missing one.
	if len(bytes.TrimSpace(data)) == 0 {
		return model.History{}, nil
	}

	var h model.History
	switch s.format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &h)
	default:
		err = json.Unmarshal(data, &h)
	}
	if err != nil {
		return nil, malformed(s.path, err)
	}
	if err := h.Validate(); err != nil {
		return nil, malformed(s.path, err)
	}

	return h.Window(s.maxTurns), nil
}

// Save writes the newest turns of h, pretty-printed, replacing the file atomically.
func (s *FileStore) Save(h model.History) error {
	data, err := s.encode(h.Window(s.maxTurns))
	if err != nil {
		return errors.Wrap(err, "encode history")
	}

	// RELIABILITY: Atomic write with fsync prevents a torn history file on crash
	return util.AtomicWriteFile(s.path, data, 0600)
}

// Delete removes the history file.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete history %s", s.path)
	}
	return nil
}

func (s *FileStore) encode(h model.History) ([]byte, error) {
	switch s.format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(h); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(h, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}
