// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/dispatch"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/logging"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/storage"
	"github.com/jeranaias/gemchat/internal/ui/chat"
)

// ResetHelp documents the session-level /reset token in /help.
const ResetHelp = "/reset - Clear conversation history"

// =============================================================================
// CONFIG LOADING
// =============================================================================

// loaded is the configuration plus the locations it came from.
type loaded struct {
	cfg  *config.Config
	home string
	path string
}

// loadConfig resolves the home directory, loads .env and the TOML file, and
// applies the --model override.
func loadConfig(f *flags) (*loaded, error) {
	home, err := config.HomeDir()
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnvFile(home); err != nil {
		return nil, err
	}

	path := f.configPath
	if path == "" {
		path = config.ConfigPath(home)
	}

	cfg, err := config.Load(path, home)
	if err != nil {
		return nil, err
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	return &loaded{cfg: cfg, home: home, path: path}, nil
}

// =============================================================================
// SESSION RUN
// =============================================================================

// run wires the session together and hands it to the shell or the REPL. The
// history is saved by the deferred Close on every way out of this function,
// including panics propagating to execute.
func run(parent context.Context, f *flags, std streams) error {
	l, err := loadConfig(f)
	if err != nil {
		return err
	}
	cfg := l.cfg
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	logCloser, err := logging.Setup(logging.Options{
		Path:       cfg.Log.Path,
		Level:      cfg.Log.Level,
		Verbose:    f.verbose,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	config.SetGlobal(cfg)

	diff, err := readDiff(f.diff, std.in)
	if err != nil {
		return err
	}
	req := dispatch.SelectMode(f.file, diff)

	store, err := storage.Open(storage.Options{
		Backend:  cfg.History.Backend,
		Path:     cfg.History.Path,
		MaxTurns: cfg.History.MaxTurns,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, shutdownSignals...)
	defer stop()

	client, err := gemini.NewClient(ctx, cfg.APIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	mgr, err := session.Open(session.Options{
		Store:             store,
		Connector:         geminiConnector(client),
		MaxTurns:          cfg.History.MaxTurns,
		RequestTimeout:    cfg.API.RequestTimeout.Duration,
		RequestsPerMinute: cfg.API.RequestsPerMinute,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mgr.Close(); cerr != nil {
			fmt.Fprintf(std.err, "%s %v\n", errorStyle.Render("Warning:"), cerr)
		}
	}()

	log.Info().
		Str("version", Version).
		Str("model", cfg.Model).
		Str("mode", req.Mode.String()).
		Str("config", l.path).
		Msg("gemchat started")

	registry := commands.NewRegistry(commands.Options{
		Model:     currentModel,
		ExtraHelp: []string{ResetHelp},
	})
	a := &app{
		ctx:        ctx,
		flags:      f,
		loaded:     l,
		registry:   registry,
		dispatcher: dispatch.New(mgr),
		std:        std,
	}
	if req.Mode != dispatch.ModePrompt {
		a.initial = &req
	}

	if useShell(f.plain) {
		err = a.runShell()
	} else {
		err = a.runREPL()
	}

	if ctx.Err() != nil && parent.Err() == nil {
		log.Info().Msg("shutdown signal received")
	}
	return err
}

// currentModel reads the live configured model.
func currentModel() string {
	return config.Global().Model
}

// geminiConnector opens a chat on the currently configured model, seeded
// with the prior history.
func geminiConnector(client *gemini.Client) session.Connector {
	return session.ConnectorFunc(func(_ context.Context, history model.History) (session.Conversation, error) {
		chat := client.Connect(currentModel(), history)
		if chat == nil {
			return nil, errors.New("gemini: no chat")
		}
		return chat, nil
	})
}

// =============================================================================
// APP
// =============================================================================

// app holds what both front ends need.
type app struct {
	ctx        context.Context
	flags      *flags
	loaded     *loaded
	registry   *commands.Registry
	dispatcher chat.Dispatcher
	initial    *dispatch.Request
	std        streams
}

// reloadConfig is the config.Watch callback shared by both front ends. It
// keeps the --model override and publishes the new config globally.
func (a *app) reloadConfig(cfg *config.Config, err error) (*config.Config, error) {
	if err != nil {
		log.Warn().Err(err).Str("path", a.loaded.path).Msg("config reload failed")
		return nil, err
	}
	if a.flags.model != "" {
		cfg.Model = a.flags.model
	}
	config.SetGlobal(cfg)
	log.Info().Str("model", cfg.Model).Msg("config reloaded")
	return cfg, nil
}

// watchConfig starts config.Watch for the rest of the session. A config
// directory that cannot be watched only disables hot reload.
func (a *app) watchConfig(notify func(*config.Config, error)) {
	err := config.Watch(a.ctx, a.loaded.path, a.loaded.home, func(cfg *config.Config, err error) {
		notify(a.reloadConfig(cfg, err))
	})
	if err != nil {
		log.Debug().Err(err).Str("path", a.loaded.path).Msg("config watch unavailable")
	}
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
