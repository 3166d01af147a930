// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/ui/styles"
	"github.com/jeranaias/gemchat/internal/util"
)

const (
	welcomeTitle = "✻ Welcome to gemchat!"
	helpHint     = "/help for help"
	emptyPrompt  = "What do you want to build today?.."
)

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) render() string {
	if !m.ready {
		return m.renderHeader() + "\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderActivity())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	width := m.theme.ContentWidth()
	cwd := util.TruncateLeft("cwd: "+m.cwd, width-4)

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.HeaderTitle.Render(welcomeTitle),
		"",
		m.theme.HeaderMuted.Render("  "+helpHint),
		"",
		m.theme.HeaderMuted.Render("  "+cwd),
	)
	return m.theme.Header.Render(body)
}

func (m Model) renderActivity() string {
	if !m.busy {
		return ""
	}
	return m.spinner.View() + " " + m.theme.Thinking.Render(styles.ThinkingText)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.
		Width(m.theme.ContentWidth()).
		Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var parts []string
	if name := m.modelName(); name != "" {
		parts = append(parts, name)
	}
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.theme.StatusBar.Render(strings.Join(parts, " · "))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the transcript and scrolls to the newest line.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	msgs := m.transcript.Messages()
	if len(msgs) == 0 {
		return m.theme.HeaderMuted.Render(emptyPrompt)
	}

	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg *model.Message) string {
	content := msg.DisplayContent()

	switch msg.Type {
	case model.MessageUser:
		return m.theme.UserPrefix.Render(styles.UserMarker) + " " + m.theme.UserText.Render(content)

	case model.MessageAssistant:
		prefix := m.theme.AssistantPrefix.Render(styles.AssistantMarker)
		if content == "" {
			return prefix
		}
		// Markdown is rendered once the reply is complete; partial fences
		// render badly.
		if !msg.IsStreaming {
			content = m.renderMarkdownText(content)
		} else {
			content = m.theme.AssistantText.Render(content)
		}
		return prefix + "\n" + content

	default:
		return m.theme.SystemText.Render(content)
	}
}

// renderMarkdownText renders content with glamour when enabled. On any
// renderer error the raw text is returned.
func (m *Model) renderMarkdownText(content string) string {
	if !m.renderMarkdown {
		return m.theme.AssistantText.Render(content)
	}

	width := m.theme.ContentWidth()
	if m.renderer == nil || m.rendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Warn().Err(err).Msg("markdown renderer unavailable")
			return content
		}
		m.renderer = r
		m.rendererWidth = width
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		log.Debug().Err(err).Msg("markdown render failed")
		return content
	}
	return strings.Trim(out, "\n")
}
