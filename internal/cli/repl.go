// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/dispatch"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineEditor wraps liner with a persisted input history.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor(historyFile string, complete func(string) []string) *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)

	e := &lineEditor{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return e
}

func (e *lineEditor) prompt(p string) (string, error) {
	input, err := e.line.Prompt(p)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the input history with owner-only permissions and restores
// the terminal.
func (e *lineEditor) Close() {
	if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		e.line.WriteHistory(f)
		f.Close()
	}
	e.line.Close()
}

// =============================================================================
// LINE ROUTING
// =============================================================================

// lineHandler applies the shell's routing rules to one line of input and
// writes the result to out.
type lineHandler struct {
	a   *app
	out io.Writer
}

// handle returns false when the session should end.
func (h *lineHandler) handle(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}

	if parsed := commands.Parse(input); parsed.IsCommand && input != session.ResetCommand {
		cmd, ok := h.a.registry.Lookup(parsed.Name)
		if !ok {
			fmt.Fprintln(h.out, systemStyle.Render(commands.UnknownMessage(parsed.Name)))
			return true
		}
		result := cmd.Action(parsed.Args)
		if result.ClearScreen {
			fmt.Fprint(h.out, "\033[H\033[2J")
		}
		if result.Output != "" {
			fmt.Fprintln(h.out, systemStyle.Render(result.Output))
		}
		return !result.Quit
	}

	h.send(dispatch.Request{Mode: dispatch.ModePrompt, Prompt: input})
	return true
}

// send dispatches req and streams the reply to out.
func (h *lineHandler) send(req dispatch.Request) {
	var streamed strings.Builder
	started := false
	req.OnChunk = func(chunk string) {
		if !started {
			fmt.Fprint(h.out, assistantStyle.Render(styles.AssistantMarker)+" ")
			started = true
		}
		streamed.WriteString(chunk)
		fmt.Fprint(h.out, chunk)
	}

	fmt.Fprintln(h.out, mutedStyle.Render(styles.ThinkingText))
	reply := h.a.dispatcher.Dispatch(h.a.ctx, req)

	switch {
	case !started:
		fmt.Fprintln(h.out, assistantStyle.Render(styles.AssistantMarker)+" "+reply)
	case streamed.String() == reply:
		fmt.Fprintln(h.out)
	default:
		// Partial stream followed by a failure string.
		fmt.Fprintln(h.out)
		fmt.Fprintln(h.out, reply)
	}
}

// =============================================================================
// REPL
// =============================================================================

// runREPL runs the line editor front end until /exit, EOF, Ctrl+C, or ctx
// ends. Prompt blocks in liner, so it runs in its own goroutine and ctx is
// honored between reads.
func (a *app) runREPL() error {
	out := a.std.out
	h := &lineHandler{a: a, out: out}

	fmt.Fprintln(out, userStyle.Render("✻ Welcome to gemchat!")+"  "+mutedStyle.Render("/help for help · cwd: "+cwd()))

	if a.initial != nil {
		h.send(*a.initial)
	}

	a.watchConfig(func(cfg *config.Config, err error) {
		if err != nil {
			log.Warn().Err(err).Msg("config reload ignored")
		}
	})

	editor := newLineEditor(config.InputHistoryPath(a.loaded.home), func(line string) []string {
		return a.registry.Complete(line, session.ResetCommand)
	})
	defer editor.Close()

	type readResult struct {
		line string
		err  error
	}
	prompt := styles.UserMarker + " "

	for {
		lines := make(chan readResult, 1)
		go func() {
			line, err := editor.prompt(prompt)
			lines <- readResult{line, err}
		}()

		select {
		case <-a.ctx.Done():
			fmt.Fprintln(out)
			return nil
		case r := <-lines:
			if r.err != nil {
				// Ctrl+C (liner.ErrPromptAborted) or EOF
				fmt.Fprintln(out)
				return nil
			}
			if !h.handle(r.line) {
				return nil
			}
		}
	}
}
