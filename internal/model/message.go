// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"

	"github.com/jeranaias/gemchat/internal/util"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageType classifies a transcript line.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
	// MessageSystem carries command output and error text. It is never
	// persisted and never sent to the API.
	MessageSystem MessageType = "system"
)

// Message is a display-only line of the shell transcript.
type Message struct {
	ID      int
	Type    MessageType
	Content string

	// Streaming state
	IsStreaming   bool
	streamContent strings.Builder
}

// AppendChunk appends streamed text to a message that is still streaming.
func (m *Message) AppendChunk(chunk string) {
	if m.IsStreaming {
		m.streamContent.WriteString(chunk)
	}
}

// Finalize ends streaming. A non-empty final replaces whatever was streamed.
func (m *Message) Finalize(final string) {
	if final == "" {
		final = m.streamContent.String()
	}
	m.Content = final
	m.streamContent.Reset()
	m.IsStreaming = false
}

// DisplayContent returns the content to display (streaming or final).
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// Preview returns a single-line truncated preview of the content.
func (m *Message) Preview(maxWidth int) string {
	return util.Preview(m.DisplayContent(), maxWidth)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered list of display messages. IDs are assigned from a
// counter that keeps increasing across Clear so they stay unique for the
// lifetime of the shell.
type Transcript struct {
	messages []*Message
	nextID   int
}

// Add appends a finished message and returns it.
func (t *Transcript) Add(typ MessageType, content string) *Message {
	t.nextID++
	msg := &Message{ID: t.nextID, Type: typ, Content: content}
	t.messages = append(t.messages, msg)
	return msg
}

// AddStreaming appends an assistant message that will receive chunks.
func (t *Transcript) AddStreaming() *Message {
	msg := t.Add(MessageAssistant, "")
	msg.IsStreaming = true
	return msg
}

// Messages returns the messages in display order.
func (t *Transcript) Messages() []*Message {
	return t.messages
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Clear drops every message. IDs are not reused.
func (t *Transcript) Clear() {
	t.messages = nil
}
