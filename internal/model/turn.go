// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
)

// DefaultMaxTurns is the number of turns kept when a history is persisted.
const DefaultMaxTurns = 20

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the roles the API accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Gemini"
	default:
		return string(r)
	}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is a single entry of conversation history.
// Turns are never mutated after they are appended.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// UserTurn returns a turn spoken by the user.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// ModelTurn returns a turn produced by the model.
func ModelTurn(content string) Turn {
	return Turn{Role: RoleModel, Content: content}
}

// Validate checks that the turn carries a known role.
func (t Turn) Validate() error {
	if !t.Role.Valid() {
		return fmt.Errorf("invalid role %q", t.Role)
	}
	return nil
}

// =============================================================================
// HISTORY TYPE
// =============================================================================

// History is the ordered conversation context, oldest first.
type History []Turn

// Append returns h with t added at the end.
func (h History) Append(t Turn) History {
	return append(h, t)
}

// Window returns the last max turns of h. A non-positive max yields an empty
// history. The result never aliases h.
func (h History) Window(max int) History {
	if max <= 0 || len(h) == 0 {
		return History{}
	}
	start := 0
	if len(h) > max {
		start = len(h) - max
	}
	out := make(History, len(h)-start)
	copy(out, h[start:])
	return out
}

// Clone returns a copy of h that shares no backing array.
func (h History) Clone() History {
	out := make(History, len(h))
	copy(out, h)
	return out
}

// Count returns the number of turns with the given role.
func (h History) Count(role Role) int {
	n := 0
	for _, t := range h {
		if t.Role == role {
			n++
		}
	}
	return n
}

// Last returns the most recent turn and whether one exists.
func (h History) Last() (Turn, bool) {
	if len(h) == 0 {
		return Turn{}, false
	}
	return h[len(h)-1], true
}

// Validate checks every turn, reporting the index of the first bad one.
func (h History) Validate() error {
	for i, t := range h {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
	}
	return nil
}
