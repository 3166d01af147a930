// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide zerolog logger.
//
// The interactive shell owns the terminal, so log output always goes to a
// size-rotated file rather than stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	// Path is the log file. Its directory is created if needed.
	Path string
	// Level is a zerolog level name. Empty means info.
	Level string
	// Verbose forces debug level regardless of Level.
	Verbose bool
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
}

// Setup points the global zerolog logger at a rotating file and returns the
// file so the caller can close it on shutdown.
func Setup(opts Options) (io.Closer, error) {
	if opts.Path == "" {
		return nil, errors.New("logging: empty log path")
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, errors.Wrapf(err, "logging: level %q", opts.Level)
		}
		level = parsed
	}
	if opts.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, errors.Wrap(err, "logging: create log directory")
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		LocalTime:  true,
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(rotator).With().Timestamp().Logger()

	return rotator, nil
}

// Discard silences the global logger. Tests and one-shot commands use it when
// no log file is wanted.
func Discard() {
	log.Logger = zerolog.Nop()
}
