// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package cli

import (
	"os"

	"golang.org/x/sys/windows"
)

// shutdownSignals end the session and trigger the history save.
var shutdownSignals = []os.Signal{os.Interrupt, windows.SIGTERM}
