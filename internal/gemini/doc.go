// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini adapts the Google Generative AI SDK to gemchat.
//
// A Client owns the SDK connection. Connect opens a Chat seeded with the
// conversation history; each Send streams one reply and the chat keeps the
// exchange as context for the next one.
//
// # Error Handling
//
// SDK and transport errors are classified into sentinel errors:
//
//   - ErrAuthFailed: missing, invalid or unauthorized API key
//   - ErrRateLimited: too many requests
//   - ErrQuotaExceeded: project quota exhausted
//   - ErrModelNotFound: unknown model name
//   - ErrBlocked: prompt or reply blocked by safety settings
//   - ErrEmptyResponse: the reply carried no text
//
// Anything else is returned as *APIError. Use errors.Is / errors.As to test.
//
// # Usage
//
//	client, err := gemini.NewClient(ctx, apiKey)
//	defer client.Close()
//	chat := client.Connect("gemini-2.0-flash", history)
//	reply, err := chat.Send(ctx, "Hello!", func(chunk string) { fmt.Print(chunk) })
package gemini
