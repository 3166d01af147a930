// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error variables for common Gemini API errors.
var (
	// ErrAuthFailed indicates the API key is missing, invalid, or not allowed.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded indicates the project quota is exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrBlocked indicates the prompt or the reply was blocked by safety filters.
	ErrBlocked = errors.New("response blocked")

	// ErrEmptyResponse indicates the reply contained no text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrChatClosed is returned by Send after Close.
	ErrChatClosed = errors.New("chat is closed")
)

// APIError represents an unclassified error from the Gemini API.
type APIError struct {
	// Status is the HTTP status, or 0 when the error came over gRPC.
	Status int
	// Code is the gRPC status code name (e.g. "Unavailable").
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("Gemini error (HTTP %d): %s", e.Status, e.Message)
	case e.Code != "":
		return fmt.Sprintf("Gemini error [%s]: %s", e.Code, e.Message)
	default:
		return "Gemini error: " + e.Message
	}
}

// Kind returns a short label for err, suitable as a log field.
func Kind(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthFailed):
		return "auth"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, ErrChatClosed):
		return "closed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &apiErr):
		return "api"
	default:
		return "unknown"
	}
}

// classifyError converts SDK errors to the package's error taxonomy.
// Context errors pass through untouched.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %s", ErrBlocked, blocked.Error())
	}

	if ae, ok := apierror.FromError(err); ok {
		return classifyAPIError(ae)
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return classifyStatus(0, st.Code(), st.Message(), "", false)
	}
	return err
}

func classifyAPIError(ae *apierror.APIError) error {
	code := codes.Unknown
	msg := ae.Error()
	if st := ae.GRPCStatus(); st != nil {
		code = st.Code()
		msg = st.Message()
	}
	httpCode := ae.HTTPCode()
	if httpCode < 0 {
		httpCode = 0
	}
	quota := ae.Details().QuotaFailure != nil
	return classifyStatus(httpCode, code, msg, ae.Reason(), quota)
}

func classifyStatus(httpCode int, code codes.Code, msg, reason string, quota bool) error {
	switch {
	case reason == "API_KEY_INVALID",
		httpCode == http.StatusUnauthorized, httpCode == http.StatusForbidden,
		code == codes.Unauthenticated, code == codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg)

	case httpCode == http.StatusTooManyRequests, code == codes.ResourceExhausted:
		if quota {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
		}
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)

	case httpCode == http.StatusNotFound, code == codes.NotFound:
		return fmt.Errorf("%w: %s", ErrModelNotFound, msg)
	}

	apiErr := &APIError{Status: httpCode, Message: msg}
	if code != codes.Unknown || httpCode == 0 {
		apiErr.Code = code.String()
	}
	return apiErr
}

// isRetryable reports whether a failed send may be attempted again.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 500 && apiErr.Status < 600 {
			return true
		}
		return apiErr.Code == codes.Unavailable.String() || apiErr.Code == codes.Internal.String()
	}
	return false
}
