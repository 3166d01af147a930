// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the gemchat shell.

All colors use Lip Gloss AdaptiveColor so that they follow the terminal
background. The background can also be forced with the [ui] theme setting:

	auto  - detect with termenv (default)
	dark  - always use the dark palette
	light - always use the light palette

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	fmt.Println(theme.UserPrefix.Render(styles.UserMarker))
*/
package styles
