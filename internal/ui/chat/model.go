// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/dispatch"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// Placeholder is shown in the empty input.
const Placeholder = "Type your query..."

// Dispatcher sends a request and returns its display text.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) string
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a shell Model.
type Options struct {
	// Context is the parent of every exchange. Cancelling it aborts the
	// request in flight.
	Context context.Context

	Dispatcher Dispatcher
	Registry   *commands.Registry
	Theme      *styles.Theme

	// Initial is submitted on Init (file or diff review). Nil for none.
	Initial *dispatch.Request

	// Model returns the configured model identifier for the status bar.
	Model func() string

	// Cwd is shown in the header.
	Cwd string

	RenderMarkdown bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the shell.
type Model struct {
	ctx        context.Context
	dispatcher Dispatcher
	registry   *commands.Registry
	theme      *styles.Theme
	keys       KeyMap
	modelName  func() string
	cwd        string

	// Transcript and the message currently receiving chunks
	transcript *model.Transcript
	streaming  *model.Message
	buffer     *StreamingBuffer
	busy       bool
	started    time.Time

	// Markdown
	renderMarkdown bool
	renderer       *glamour.TermRenderer
	rendererWidth  int

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	// initCmd runs the initial review request
	initCmd tea.Cmd
}

// New creates a shell model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}
	registry := opts.Registry
	if registry == nil {
		registry = commands.NewRegistry(commands.Options{Model: opts.Model})
	}
	modelName := opts.Model
	if modelName == nil {
		modelName = func() string { return "" }
	}

	input := textinput.New()
	input.Placeholder = Placeholder
	input.Prompt = styles.UserMarker + " "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.ShowSuggestions = true
	input.SetSuggestions(registry.Complete("/", session.ResetCommand))
	input.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	m := Model{
		ctx:            ctx,
		dispatcher:     opts.Dispatcher,
		registry:       registry,
		theme:          theme,
		keys:           DefaultKeyMap(),
		modelName:      modelName,
		cwd:            opts.Cwd,
		transcript:     &model.Transcript{},
		buffer:         NewStreamingBuffer(),
		renderMarkdown: opts.RenderMarkdown,
		viewport:       viewport.New(80, 20),
		input:          input,
		spinner:        sp,
	}

	if opts.Initial != nil {
		m, m.initCmd = m.startExchange(*opts.Initial, "")
	}
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init submits the initial review request, if any.
func (m Model) Init() tea.Cmd {
	if m.initCmd != nil {
		return m.initCmd
	}
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case ExchangeDoneMsg:
		return m.handleExchangeDone(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmds []tea.Cmd
		if !m.busy {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
		return m, tea.Batch(cmds...)
	}
}

// View renders the shell.
func (m Model) View() string {
	return m.render()
}

// Busy reports whether an exchange is outstanding.
func (m Model) Busy() bool {
	return m.busy
}

// Transcript returns the display transcript.
func (m Model) Transcript() *model.Transcript {
	return m.transcript
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	const (
		inputHeight  = 3 // bordered single line
		statusHeight = 2 // spinner line + status bar
	)
	vpHeight := msg.Height - lipgloss.Height(m.renderHeader()) - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight
	m.input.Width = m.theme.ContentWidth() - 4
	m.ready = true
	m.refreshViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		log.Debug().Bool("busy", m.busy).Msg("quit requested")
		return m, tea.Quit

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	// Single in-flight exchange: everything else waits.
	if m.busy {
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		text := m.input.Value()
		m.input.Reset()
		return m.submit(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit routes one line of input.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return m, nil
	}

	if parsed := commands.Parse(trimmed); parsed.IsCommand && trimmed != session.ResetCommand {
		return m.runCommand(parsed)
	}

	m, cmd := m.startExchange(dispatch.Request{Mode: dispatch.ModePrompt, Prompt: trimmed}, trimmed)
	return m, cmd
}

func (m Model) runCommand(parsed commands.ParseResult) (tea.Model, tea.Cmd) {
	cmd, ok := m.registry.Lookup(parsed.Name)
	if !ok {
		m.transcript.Add(model.MessageSystem, commands.UnknownMessage(parsed.Name))
		m.refreshViewport()
		return m, nil
	}

	log.Debug().Str("command", parsed.Name).Msg("running command")
	result := cmd.Action(parsed.Args)

	if result.ClearScreen {
		m.transcript.Clear()
	}
	if result.Output != "" {
		m.transcript.Add(model.MessageSystem, result.Output)
	}
	m.refreshViewport()

	if result.Quit {
		return m, tea.Quit
	}
	return m, nil
}

// startExchange shows the user line (when echo is non-empty), opens a
// streaming assistant message and runs the request in a tea.Cmd goroutine.
func (m Model) startExchange(req dispatch.Request, echo string) (Model, tea.Cmd) {
	if echo != "" {
		m.transcript.Add(model.MessageUser, echo)
	}
	m.streaming = m.transcript.AddStreaming()
	m.buffer.Reset()
	m.busy = true
	m.started = time.Now()
	m.input.Blur()
	m.refreshViewport()

	id := m.streaming.ID
	buffer := m.buffer
	req.OnChunk = buffer.Write
	ctx := m.ctx
	dispatcher := m.dispatcher
	started := m.started

	run := func() tea.Msg {
		reply := session.FailureMessage
		if dispatcher != nil {
			reply = dispatcher.Dispatch(ctx, req)
		}
		return ExchangeDoneMsg{MessageID: id, Reply: reply, Duration: time.Since(started)}
	}

	return m, tea.Batch(run, m.spinner.Tick, streamTickCmd())
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.busy {
		return m, nil
	}
	if chunk, ok := m.buffer.Flush(); ok && m.streaming != nil {
		m.streaming.AppendChunk(chunk)
		m.refreshViewport()
	}
	return m, streamTickCmd()
}

func (m Model) handleExchangeDone(msg ExchangeDoneMsg) (tea.Model, tea.Cmd) {
	if m.streaming == nil || m.streaming.ID != msg.MessageID {
		return m, nil
	}

	if chunk, ok := m.buffer.ForceFlush(); ok {
		m.streaming.AppendChunk(chunk)
	}
	m.streaming.Finalize(msg.Reply)
	m.streaming = nil
	m.busy = false

	log.Debug().Dur("duration", msg.Duration).Int("message", msg.MessageID).Msg("exchange displayed")

	m.refreshViewport()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.transcript.Add(model.MessageSystem, "Config reload failed: "+msg.Err.Error())
	} else if msg.Config != nil {
		m.renderMarkdown = msg.Config.UI.RenderMarkdown
		m.transcript.Add(model.MessageSystem, "Configuration reloaded.")
	}
	m.refreshViewport()
	return m, nil
}
