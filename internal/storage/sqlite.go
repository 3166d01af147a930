// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/gemchat/internal/model"
)

const turnsSchema = `
CREATE TABLE IF NOT EXISTS turns (
	seq     INTEGER PRIMARY KEY,
	role    TEXT NOT NULL,
	content TEXT NOT NULL
);`

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore keeps the history in a SQLite database. The database is opened
// for each operation; history is only read at startup and written at shutdown.
type SQLiteStore struct {
	path     string
	maxTurns int
}

// NewSQLiteStore creates a SQLite-backed store at path.
func NewSQLiteStore(path string, maxTurns int) *SQLiteStore {
	if maxTurns <= 0 {
		maxTurns = model.DefaultMaxTurns
	}
	return &SQLiteStore{path: path, maxTurns: maxTurns}
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, errors.Wrap(err, "create history directory")
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// Single writer, single process.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Load reads the newest turns in sequence order.
func (s *SQLiteStore) Load() (model.History, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return model.History{}, nil
		}
		return nil, errors.Wrapf(err, "stat history %s", s.path)
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, turnsSchema); err != nil {
		return nil, malformed(s.path, err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT role, content FROM (
			SELECT seq, role, content FROM turns ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, s.maxTurns)
	if err != nil {
		return nil, malformed(s.path, err)
	}
	defer rows.Close()

	h := model.History{}
	for rows.Next() {
		var t model.Turn
		var role string
		if err := rows.Scan(&role, &t.Content); err != nil {
			return nil, malformed(s.path, err)
		}
		t.Role = model.Role(role)
		h = append(h, t)
	}
	if err := rows.Err(); err != nil {
		return nil, malformed(s.path, err)
	}
	if err := h.Validate(); err != nil {
		return nil, malformed(s.path, err)
	}
	return h, nil
}

// Save rewrites the turns table with the newest turns of h in one transaction.
func (s *SQLiteStore) Save(h model.History) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, turnsSchema); err != nil {
		return errors.Wrap(err, "init schema")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM turns"); err != nil {
		return errors.Wrap(err, "clear turns")
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO turns(seq, role, content) VALUES(?,?,?)")
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for i, t := range h.Window(s.maxTurns) {
		if _, err := stmt.ExecContext(ctx, i, string(t.Role), t.Content); err != nil {
			return errors.Wrapf(err, "insert turn %d", i)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Delete removes the database file and its journal files.
func (s *SQLiteStore) Delete() error {
	for _, p := range []string{s.path, s.path + "-journal", s.path + "-wal", s.path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "delete history %s", p)
		}
	}
	return nil
}
