// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive Bubble Tea shell.

The shell renders a header box, a scrolling transcript and a single-line
input. Input is routed as follows:

  - "/reset" goes to the session, which clears the conversation history
  - any other "/name" goes to the command registry
  - everything else is sent to Gemini through the dispatcher

Only one exchange is outstanding at a time. While a reply streams the input
is blurred and keystrokes other than quit are ignored. Streamed chunks are
batched by a StreamingBuffer and flushed on a 30fps tick.

Esc or Ctrl+C quits. Quitting returns from the program normally so the
caller's deferred shutdown saves the history.
*/
package chat
