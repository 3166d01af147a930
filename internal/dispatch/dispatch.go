// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch turns an invocation (typed prompt, file review or diff
// review) into the prompt text sent to the session.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ReviewPrefix introduces file and diff content sent for review.
const ReviewPrefix = "Please review the following code. Point out any bugs, suggest improvements, and check it against best practices:\n\n"

// =============================================================================
// MODES
// =============================================================================

// Mode selects how the prompt is built.
type Mode int

const (
	// ModePrompt sends the text as typed.
	ModePrompt Mode = iota
	// ModeFile sends the contents of a file for review.
	ModeFile
	// ModeDiff sends a diff for review.
	ModeDiff
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModePrompt:
		return "prompt"
	case ModeFile:
		return "file"
	case ModeDiff:
		return "diff"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Request is one unit of work for the dispatcher.
type Request struct {
	Mode   Mode
	Prompt string // ModePrompt
	Path   string // ModeFile
	Diff   string // ModeDiff

	// OnChunk, when set, receives the reply as it streams in.
	OnChunk func(string)
}

// SelectMode picks exactly one mode from the invocation flags. A file path
// wins over a diff; with neither, the request is an (initially empty) prompt.
func SelectMode(filePath, diff string) Request {
	switch {
	case filePath != "":
		return Request{Mode: ModeFile, Path: filePath}
	case diff != "":
		return Request{Mode: ModeDiff, Diff: diff}
	default:
		return Request{Mode: ModePrompt}
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrEmptyInput is returned for a request with nothing to send.
var ErrEmptyInput = errors.New("nothing to send")

// InputError is a problem with the requested input. Its message is shown to
// the user as is.
type InputError struct {
	Message string
	Err     error
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// =============================================================================
// PROMPT BUILDING
// =============================================================================

// BuildPrompt returns the text to submit for req.
func BuildPrompt(req Request) (string, error) {
	switch req.Mode {
	case ModePrompt:
		if strings.TrimSpace(req.Prompt) == "" {
			return "", ErrEmptyInput
		}
		return req.Prompt, nil

	case ModeFile:
		content, err := ReadSource(req.Path)
		if err != nil {
			return "", err
		}
		return ReviewPrefix + Fence(content, LanguageFor(req.Path)), nil

	case ModeDiff:
		// Piped diffs are raw bytes.
		diff, err := decodeText([]byte(req.Diff))
		if err != nil {
			return "", errors.Wrap(err, "decode diff")
		}
		if strings.TrimSpace(diff) == "" {
			return "", ErrEmptyInput
		}
		return ReviewPrefix + Fence(diff, "diff"), nil

	default:
		return "", errors.Errorf("unknown mode %v", req.Mode)
	}
}

// ReadSource reads a file for review, decoding UTF-8 or UTF-16 according to
// its byte order mark.
func ReadSource(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &InputError{Message: "File not found: " + path, Err: err}
		}
		return "", &InputError{Message: readErrorMessage(path, err), Err: err}
	}
	if info.IsDir() {
		return "", &InputError{Message: fmt.Sprintf("Error reading file %s: is a directory", path)}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &InputError{Message: readErrorMessage(path, err), Err: err}
	}

	content, err := decodeText(raw)
	if err != nil {
		return "", &InputError{Message: readErrorMessage(path, err), Err: err}
	}
	if strings.TrimSpace(content) == "" {
		return "", &InputError{Message: "File is empty: " + path, Err: ErrEmptyInput}
	}
	return content, nil
}

func readErrorMessage(path string, err error) string {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return fmt.Sprintf("Error reading file %s: %v", path, err)
}

// Fence wraps content in a Markdown code block tagged with lang. The fence
// is made longer than any backtick run inside content.
func Fence(content, lang string) string {
	fence := strings.Repeat("`", max(3, longestBacktickRun(content)+1))

	var sb strings.Builder
	sb.WriteString(fence)
	sb.WriteString(lang)
	sb.WriteByte('\n')
	sb.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString(fence)
	return sb.String()
}

func longestBacktickRun(s string) int {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Submitter sends a prompt and always returns display text.
type Submitter interface {
	Submit(ctx context.Context, prompt string, onChunk func(string)) string
}

// Dispatcher builds prompts and hands them to a Submitter.
type Dispatcher struct {
	session Submitter
}

// New creates a Dispatcher backed by s.
func New(s Submitter) *Dispatcher {
	return &Dispatcher{session: s}
}

// Dispatch returns the reply for req, or the text of an input error. Input
// errors never reach the session. An empty request returns "".
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) string {
	prompt, err := BuildPrompt(req)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) && !isInputError(err) {
			return ""
		}
		log.Debug().Err(err).Str("mode", req.Mode.String()).Msg("dispatch rejected input")
		return err.Error()
	}

	log.Debug().Str("mode", req.Mode.String()).Int("prompt_len", len(prompt)).Msg("dispatching")
	return d.session.Submit(ctx, prompt, req.OnChunk)
}

func isInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}
