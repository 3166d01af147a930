// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// watchDebounce coalesces the burst of events editors produce on save.
const watchDebounce = 150 * time.Millisecond

// ReloadFunc receives the reloaded configuration, or the error from reloading it.
type ReloadFunc func(cfg *Config, err error)

// Watch reloads the config file at path whenever it changes and passes the
// result to fn. The parent directory is watched so that editors that replace
// the file on save are handled. Watch returns once the watcher is running;
// it stops when ctx is cancelled.
func Watch(ctx context.Context, path, home string, fn ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return errors.Wrap(err, "resolve config path")
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return errors.Wrap(err, "watch config directory")
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(watchDebounce)
				} else {
					debounce.Reset(watchDebounce)
				}
				fire = debounce.C

			case <-fire:
				fire = nil
				fn(Load(absPath, home))

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fn(nil, errors.Wrap(err, "watch config"))
			}
		}
	}()

	return nil
}
