// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	path := ConfigPath(home)
	writeFile(t, path, "model = \"first\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, home, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	}))

	writeFile(t, path, "model = \"second\"\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.Model == "second" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not picked up")
		}
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	path := ConfigPath(home)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 4)
	require.NoError(t, Watch(ctx, path, home, func(*Config, error) {
		calls <- struct{}{}
	}))

	writeFile(t, EnvPath(home), "X=1\n")

	select {
	case <-calls:
		t.Fatal("reload fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}
