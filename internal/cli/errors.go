// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates a normal exit, /exit, or an interrupt
	ExitSuccess = 0
	// ExitFailure indicates a startup configuration error or a fault
	ExitFailure = 1
)

// =============================================================================
// ERROR REPORTING
// =============================================================================

// hintFor returns a short remedy for well-known startup failures.
func hintFor(err error) string {
	var verrs config.ValidateErrors
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		return "Set GOOGLE_API_KEY in the environment or in the .env file next to the executable."
	case errors.Is(err, storage.ErrMalformedStore):
		return "Fix or remove the history file, or run with a different history.path."
	case errors.As(err, &verrs):
		return "Edit config.toml or run 'gemchat config init' to start from defaults."
	}
	return ""
}

// reportError prints err and its hint to w.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", errorStyle.Render("Error:"), err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(w, "%s %s\n", hintStyle.Render("Hint:"), hint)
	}
}
