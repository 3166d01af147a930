// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultMaxRetries is the number of extra attempts after a retryable failure.
	DefaultMaxRetries = 2

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second
)

// =============================================================================
// CLIENT
// =============================================================================

// Client owns the connection to the Gemini API.
type Client struct {
	client     *genai.Client
	maxRetries int
}

// ClientOption configures a Client.
type ClientOption func(*clientSettings)

type clientSettings struct {
	maxRetries int
	sdkOptions []option.ClientOption
}

// WithMaxRetries sets the number of retries for rate limits and server errors.
func WithMaxRetries(n int) ClientOption {
	return func(s *clientSettings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithSDKOptions passes extra options to the underlying SDK client.
func WithSDKOptions(opts ...option.ClientOption) ClientOption {
	return func(s *clientSettings) {
		s.sdkOptions = append(s.sdkOptions, opts...)
	}
}

// NewClient connects to the Gemini API with the given key.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.Wrap(ErrAuthFailed, "empty API key")
	}

	settings := clientSettings{maxRetries: DefaultMaxRetries}
	for _, opt := range opts {
		opt(&settings)
	}

	sdkOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, settings.sdkOptions...)
	client, err := genai.NewClient(ctx, sdkOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "create Gemini client")
	}

	return &Client{client: client, maxRetries: settings.maxRetries}, nil
}

// Close releases the SDK connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Connect opens a chat on modelName seeded with history.
func (c *Client) Connect(modelName string, history model.History) *Chat {
	m := c.client.GenerativeModel(modelName)
	cs := m.StartChat()
	cs.History = toContents(history)

	return &Chat{
		session:    cs,
		model:      modelName,
		maxRetries: c.maxRetries,
	}
}

// ModelInfo describes a model offered by the API.
type ModelInfo struct {
	// ID is the identifier accepted by Connect (without the "models/" prefix).
	ID               string
	DisplayName      string
	Description      string
	InputTokenLimit  int32
	OutputTokenLimit int32
}

// ListModels returns the models that support chat generation.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo

	it := c.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyError(err)
		}
		if !supportsGenerate(m.SupportedGenerationMethods) {
			continue
		}
		models = append(models, ModelInfo{
			ID:               strings.TrimPrefix(m.Name, "models/"),
			DisplayName:      m.DisplayName,
			Description:      m.Description,
			InputTokenLimit:  m.InputTokenLimit,
			OutputTokenLimit: m.OutputTokenLimit,
		})
	}
	return models, nil
}

func supportsGenerate(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

// =============================================================================
// CHAT
// =============================================================================

// Chat is a live conversation. It accumulates every exchange as context.
// Send is not safe for concurrent use; Close may be called at any time.
type Chat struct {
	session    *genai.ChatSession
	model      string
	maxRetries int
	closed     atomic.Bool
}

// Model returns the model the chat was opened with.
func (c *Chat) Model() string {
	return c.model
}

// Send streams the reply to prompt. onChunk, when non-nil, receives each text
// fragment as it arrives. The returned reply is the full text.
//
// A failed attempt that delivered no chunks is retried for rate limits and
// server errors. Once text has been shown it is never retried.
func (c *Chat) Send(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	if c.session == nil || c.closed.Load() {
		return "", ErrChatClosed
	}

	base := len(c.session.History)
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt - 1)
			log.Debug().
				Str("model", c.model).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying Gemini request")

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			if c.closed.Load() {
				return "", ErrChatClosed
			}

			// The SDK appended the prompt on the failed attempt.
			c.session.History = c.session.History[:base]
		}

		reply, delivered, err := c.stream(ctx, prompt, onChunk)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if delivered || !isRetryable(err) {
			break
		}
	}
	return "", lastErr
}

// stream performs one attempt and reports whether any text reached onChunk.
func (c *Chat) stream(ctx context.Context, prompt string, onChunk func(string)) (string, bool, error) {
	var reply strings.Builder
	delivered := false

	it := c.session.SendMessageStream(ctx, genai.Text(prompt))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", delivered, classifyError(err)
		}

		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		reply.WriteString(chunk)
		delivered = true
		if onChunk != nil {
			onChunk(chunk)
		}
	}

	if strings.TrimSpace(reply.String()) == "" {
		return "", delivered, ErrEmptyResponse
	}
	return reply.String(), delivered, nil
}

// Close marks the chat closed. A Send in progress finishes its current
// attempt and makes no further ones. The client connection stays open.
func (c *Chat) Close() error {
	c.closed.Store(true)
	return nil
}

// backoff returns the delay before retry number attempt (0-based).
func backoff(attempt int) time.Duration {
	// Exponential backoff: 500ms, 1s, 2s, etc.
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
