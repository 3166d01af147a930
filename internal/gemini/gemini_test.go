// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// ERROR CLASSIFICATION TESTS
// =============================================================================

func TestClassifyError_GRPC(t *testing.T) {
	tests := []struct {
		name string
		code codes.Code
		want error
	}{
		{"unauthenticated", codes.Unauthenticated, ErrAuthFailed},
		{"permission denied", codes.PermissionDenied, ErrAuthFailed},
		{"resource exhausted", codes.ResourceExhausted, ErrRateLimited},
		{"not found", codes.NotFound, ErrModelNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyError(status.Error(tc.code, "boom"))
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestClassifyError_Unclassified(t *testing.T) {
	err := classifyError(status.Error(codes.Unavailable, "backend down"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %T", err)
	assert.Equal(t, "Unavailable", apiErr.Code)
	assert.Equal(t, "backend down", apiErr.Message)
	assert.True(t, isRetryable(err))
}

func TestClassifyError_Blocked(t *testing.T) {
	err := classifyError(&genai.BlockedError{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	})
	assert.ErrorIs(t, err, ErrBlocked)
	assert.False(t, isRetryable(err))
}

func TestClassifyError_PassThrough(t *testing.T) {
	assert.Nil(t, classifyError(nil))
	assert.Equal(t, context.DeadlineExceeded, classifyError(context.DeadlineExceeded))

	wrapped := fmt.Errorf("send: %w", context.Canceled)
	assert.Equal(t, wrapped, classifyError(wrapped))

	plain := errors.New("dial tcp: connection refused")
	assert.Equal(t, plain, classifyError(plain))
}

func TestClassifyStatus_HTTP(t *testing.T) {
	tests := []struct {
		name   string
		http   int
		reason string
		quota  bool
		want   error
	}{
		{"401", 401, "", false, ErrAuthFailed},
		{"403", 403, "", false, ErrAuthFailed},
		{"invalid key", 400, "API_KEY_INVALID", false, ErrAuthFailed},
		{"429", 429, "", false, ErrRateLimited},
		{"429 quota", 429, "", true, ErrQuotaExceeded},
		{"404", 404, "", false, ErrModelNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStatus(tc.http, codes.Unknown, "msg", tc.reason, tc.quota)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	err := classifyStatus(503, codes.Unknown, "overloaded", "", false)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.Status)
	assert.Equal(t, "Gemini error (HTTP 503): overloaded", apiErr.Error())
	assert.True(t, isRetryable(err))

	assert.False(t, isRetryable(classifyStatus(400, codes.Unknown, "bad request", "", false)))
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: x", ErrAuthFailed), "auth"},
		{ErrRateLimited, "rate_limited"},
		{ErrQuotaExceeded, "quota"},
		{ErrModelNotFound, "model_not_found"},
		{ErrBlocked, "blocked"},
		{ErrEmptyResponse, "empty"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{&APIError{Status: 500, Message: "x"}, "api"},
		{errors.New("other"), "unknown"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Kind(tc.err), "Kind(%v)", tc.err)
	}
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, backoff(0))
	assert.Equal(t, time.Second, backoff(1))
	assert.Equal(t, 2*time.Second, backoff(2))
	assert.Equal(t, retryMaxDelay, backoff(10))
}

// =============================================================================
// CONVERSION TESTS
// =============================================================================

func TestToContents(t *testing.T) {
	h := model.History{model.UserTurn("hi"), model.ModelTurn("hello")}
	contents := toContents(h)

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, []genai.Part{genai.Text("hello")}, contents[1].Parts)

	assert.Empty(t, toContents(nil))
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text("Hello, "), genai.Blob{MIMEType: "image/png"}, genai.Text("world")},
			},
		}},
	}
	assert.Equal(t, "Hello, world", responseText(resp))

	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

func TestNewClient_EmptyKey(t *testing.T) {
	_, err := NewClient(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestChat_SendAfterClose(t *testing.T) {
	c := &Chat{}
	require.NoError(t, c.Close())
	_, err := c.Send(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrChatClosed)
	assert.Equal(t, "closed", Kind(err))
}

func TestChat_CloseKeepsSession(t *testing.T) {
	session := &genai.ChatSession{History: []*genai.Content{{Role: "user", Parts: []genai.Part{genai.Text("hi")}}}}
	c := &Chat{session: session, model: "gemini-test"}

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// A Send already past its entry check still reads the session.
	assert.Same(t, session, c.session)
	assert.Len(t, c.session.History, 1)

	_, err := c.Send(context.Background(), "again", nil)
	assert.ErrorIs(t, err, ErrChatClosed)
}
