// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/ui/chat"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// ErrShellFault is returned when the shell loop stopped on a recovered panic.
var ErrShellFault = errors.New("shell stopped after an unrecoverable fault")

// runShell runs the Bubble Tea shell until the user quits or ctx ends.
func (a *app) runShell() error {
	cfg := a.loaded.cfg

	m := chat.New(chat.Options{
		Context:        a.ctx,
		Dispatcher:     a.dispatcher,
		Registry:       a.registry,
		Theme:          styles.NewTheme(cfg.UI.Theme),
		Initial:        a.initial,
		Model:          currentModel,
		Cwd:            cwd(),
		RenderMarkdown: cfg.UI.RenderMarkdown,
	})

	p := a.newProgram(m)

	a.watchConfig(func(cfg *config.Config, err error) {
		p.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
	})

	return runProgram(p)
}

func (a *app) newProgram(m tea.Model) *tea.Program {
	return tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(a.ctx),
		tea.WithInput(a.std.in),
		tea.WithOutput(a.std.out),
	)
}

// runProgram runs p and maps how it ended to an error. Bubble Tea recovers
// panics in the event loop itself and reports them as a nil model with no
// error.
func runProgram(p *tea.Program) error {
	final, err := p.Run()
	switch {
	case errors.Is(err, tea.ErrProgramKilled):
		// Context cancelled by a shutdown signal.
		return nil
	case err != nil:
		return err
	case final == nil:
		return ErrShellFault
	}
	return nil
}
