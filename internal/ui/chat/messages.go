// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/gemchat/internal/config"
)

// =============================================================================
// EXCHANGE MESSAGES
// =============================================================================

// ExchangeDoneMsg carries the final display text for a submitted request.
type ExchangeDoneMsg struct {
	MessageID int
	Reply     string
	Duration  time.Duration
}

// StreamTickMsg triggers a flush of buffered chunks into the transcript.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg reports a configuration file reload. Exactly one of
// Config and Err is set.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
