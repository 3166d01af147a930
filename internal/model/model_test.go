// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"testing"
)

// =============================================================================
// HISTORY TESTS
// =============================================================================

func makeHistory(n int) History {
	h := History{}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			h = h.Append(UserTurn(fmt.Sprintf("q%d", i)))
		} else {
			h = h.Append(ModelTurn(fmt.Sprintf("a%d", i)))
		}
	}
	return h
}

func TestHistory_Window(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		max     int
		wantLen int
		first   string
	}{
		{"empty", 0, 20, 0, ""},
		{"under limit", 5, 20, 5, "q0"},
		{"at limit", 20, 20, 20, "q0"},
		{"over limit keeps newest", 22, 20, 20, "q2"},
		{"zero max", 4, 0, 0, ""},
		{"negative max", 4, -1, 0, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := makeHistory(tc.size).Window(tc.max)
			if len(got) != tc.wantLen {
				t.Fatalf("Window() len = %d, want %d", len(got), tc.wantLen)
			}
			if tc.wantLen > 0 && got[0].Content != tc.first {
				t.Errorf("Window()[0] = %q, want %q", got[0].Content, tc.first)
			}
		})
	}
}

func TestHistory_WindowIsSuffix(t *testing.T) {
	h := makeHistory(30)
	got := h.Window(7)
	for i := range got {
		if got[i] != h[len(h)-7+i] {
			t.Fatalf("Window()[%d] = %v, want %v", i, got[i], h[len(h)-7+i])
		}
	}
}

func TestHistory_WindowDoesNotAlias(t *testing.T) {
	h := makeHistory(3)
	w := h.Window(3)
	w[0].Content = "changed"
	if h[0].Content != "q0" {
		t.Errorf("Window() aliased the source history")
	}
}

func TestHistory_CloneDoesNotAlias(t *testing.T) {
	h := makeHistory(2)
	c := h.Clone()
	c[1].Content = "changed"
	if h[1].Content != "a1" {
		t.Errorf("Clone() aliased the source history")
	}
}

func TestHistory_Count(t *testing.T) {
	h := makeHistory(5)
	if got := h.Count(RoleUser); got != 3 {
		t.Errorf("Count(user) = %d, want 3", got)
	}
	if got := h.Count(RoleModel); got != 2 {
		t.Errorf("Count(model) = %d, want 2", got)
	}
}

func TestHistory_Last(t *testing.T) {
	if _, ok := (History{}).Last(); ok {
		t.Error("Last() on empty history reported a turn")
	}
	last, ok := makeHistory(2).Last()
	if !ok || last.Role != RoleModel {
		t.Errorf("Last() = %v, %v", last, ok)
	}
}

func TestHistory_Validate(t *testing.T) {
	if err := makeHistory(4).Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
	bad := makeHistory(2).Append(Turn{Role: "assistant", Content: "x"})
	if err := bad.Validate(); err == nil {
		t.Error("Validate() accepted an unknown role")
	}
}

func TestRole_DisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", RoleUser.DisplayName())
	}
	if RoleModel.DisplayName() != "Gemini" {
		t.Errorf("RoleModel.DisplayName() = %q", RoleModel.DisplayName())
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_IDsIncreaseAcrossClear(t *testing.T) {
	var tr Transcript
	a := tr.Add(MessageUser, "hi")
	b := tr.Add(MessageAssistant, "hello")
	tr.Clear()
	c := tr.Add(MessageSystem, "cleared")

	if a.ID != 1 || b.ID != 2 || c.ID != 3 {
		t.Errorf("IDs = %d, %d, %d; want 1, 2, 3", a.ID, b.ID, c.ID)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestMessage_Streaming(t *testing.T) {
	var tr Transcript
	msg := tr.AddStreaming()
	msg.AppendChunk("Hel")
	msg.AppendChunk("lo")

	if got := msg.DisplayContent(); got != "Hello" {
		t.Errorf("DisplayContent() while streaming = %q", got)
	}

	msg.Finalize("")
	if msg.IsStreaming || msg.Content != "Hello" {
		t.Errorf("after Finalize: streaming=%v content=%q", msg.IsStreaming, msg.Content)
	}

	msg.AppendChunk("ignored")
	if msg.DisplayContent() != "Hello" {
		t.Errorf("chunk appended after Finalize")
	}
}

func TestMessage_FinalizeReplaces(t *testing.T) {
	msg := &Message{Type: MessageAssistant, IsStreaming: true}
	msg.AppendChunk("partial")
	msg.Finalize("Sorry, there was an error generating the response.")
	if msg.Content != "Sorry, there was an error generating the response." {
		t.Errorf("Finalize() content = %q", msg.Content)
	}
}
