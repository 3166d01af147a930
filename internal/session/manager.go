// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/logging"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/storage"
)

// =============================================================================
// FIXED RESPONSES
// =============================================================================

const (
	// ResetCommand is the prompt that resets the session instead of being sent.
	ResetCommand = "/reset"

	// ResetConfirmation is returned by Submit after a reset.
	ResetConfirmation = "Conversation history has been reset."

	// FailureMessage is returned by Submit when the API call fails.
	FailureMessage = "Sorry, there was an error generating the response."

	// TimeoutMessage is returned by Submit when the API call times out.
	TimeoutMessage = "Sorry, the request timed out. Please try again."

	// BusyMessage is returned by Submit while another exchange is in flight.
	BusyMessage = "Please wait for the current response to finish."
)

// DefaultRequestTimeout bounds an exchange when Options leaves it unset.
const DefaultRequestTimeout = 2 * time.Minute

// closeDrainTimeout bounds how long Close waits for a cancelled exchange to
// return before saving.
const closeDrainTimeout = 5 * time.Second

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned when an exchange is already in flight.
	ErrBusy = errors.New("an exchange is already in progress")

	// ErrTimeout is returned when an exchange exceeds the request timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session is closed")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Conversation is a live connection that remembers previous exchanges.
type Conversation interface {
	// Send submits prompt and returns the full reply. onChunk, when non-nil,
	// receives partial text as it streams in.
	Send(ctx context.Context, prompt string, onChunk func(string)) (string, error)
	Close() error
}

// Connector opens conversations.
type Connector interface {
	// Connect opens a conversation seeded with history as prior context.
	Connect(ctx context.Context, history model.History) (Conversation, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, history model.History) (Conversation, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, history model.History) (Conversation, error) {
	return f(ctx, history)
}

// =============================================================================
// STATE
// =============================================================================

// State is the connection state of a Manager.
type State int

const (
	// StateFresh means no connection is open.
	StateFresh State = iota
	// StateActive means a connection is open and bound to the history.
	StateActive
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// Options configures Open.
type Options struct {
	// Store persists the history. Required.
	Store storage.HistoryStore

	// Connector opens the model connection. Required.
	Connector Connector

	// MaxTurns bounds the saved history. Zero means model.DefaultMaxTurns.
	MaxTurns int

	// RequestTimeout bounds one exchange. Zero means DefaultRequestTimeout.
	RequestTimeout time.Duration

	// RequestsPerMinute caps outgoing exchanges. Zero disables the limit.
	RequestsPerMinute int
}

// Manager owns the history and the model connection for one run.
type Manager struct {
	mu sync.Mutex

	id        string
	store     storage.HistoryStore
	connector Connector
	logger    zerolog.Logger

	history model.History
	conv    Conversation
	busy    bool
	closed  bool

	// Set while busy: cancels the exchange in flight and is closed when it
	// returns.
	cancel context.CancelFunc
	idle   chan struct{}

	limiter  *rate.Limiter
	timeout  time.Duration
	maxTurns int

	closeOnce sync.Once
	closeErr  error
}

// Open loads the persisted history and returns a Fresh manager. A malformed
// store is returned as an error matching storage.ErrMalformedStore.
func Open(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("session: nil store")
	}
	if opts.Connector == nil {
		return nil, errors.New("session: nil connector")
	}

	history, err := opts.Store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load history")
	}

	m := &Manager{
		id:        uuid.NewString(),
		store:     opts.Store,
		connector: opts.Connector,
		history:   history,
		timeout:   opts.RequestTimeout,
		maxTurns:  opts.MaxTurns,
	}
	if m.timeout <= 0 {
		m.timeout = DefaultRequestTimeout
	}
	if m.maxTurns <= 0 {
		m.maxTurns = model.DefaultMaxTurns
	}
	if opts.RequestsPerMinute > 0 {
		m.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	m.logger = log.With().Str("session", m.id).Logger()

	m.logger.Info().
		Str("store", opts.Store.Path()).
		Int("turns", len(history)).
		Msg("session opened")

	return m, nil
}

// ID returns the session identifier used in logs.
func (m *Manager) ID() string {
	return m.id
}

// State reports whether a connection is open.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conv == nil {
		return StateFresh
	}
	return StateActive
}

// Busy reports whether an exchange is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Snapshot returns a copy of the current history.
func (m *Manager) Snapshot() model.History {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Clone()
}

// =============================================================================
// EXCHANGE
// =============================================================================

// Exchange sends prompt to the model and returns its reply.
//
// The user turn is appended before the call and stays in the history even if
// the call fails; the model turn is appended only on success. Errors are
// ErrBusy, ErrClosed, ErrTimeout, or the connector's error.
func (m *Manager) Exchange(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	if m.busy {
		m.mu.Unlock()
		return "", ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	idle := make(chan struct{})
	m.busy = true
	m.cancel = cancel
	m.idle = idle
	prior := m.history.Clone()
	m.history = m.history.Append(model.UserTurn(prompt))
	conv := m.conv
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		m.busy = false
		m.cancel = nil
		m.idle = nil
		m.mu.Unlock()
		close(idle)
	}()

	start := time.Now()
	m.logger.Debug().
		Str("prompt", logging.Preview(prompt)).
		Int("turns", len(prior)+1).
		Msg("exchange started")

	reply, err := m.exchange(ctx, conv, prior, prompt, onChunk)
	if err != nil {
		m.logger.Warn().
			Err(err).
			Str("kind", gemini.Kind(err)).
			Dur("duration", time.Since(start)).
			Msg("exchange failed")
		return "", err
	}

	m.mu.Lock()
	m.history = m.history.Append(model.ModelTurn(reply))
	turns := len(m.history)
	m.mu.Unlock()

	m.logger.Info().
		Dur("duration", time.Since(start)).
		Int("turns", turns).
		Int("reply_len", len(reply)).
		Msg("exchange completed")

	return reply, nil
}

func (m *Manager) exchange(parent context.Context, conv Conversation, prior model.History, prompt string, onChunk func(string)) (string, error) {
	ctx, cancel := context.WithTimeout(parent, m.timeout)
	defer cancel()

	if err := m.waitForSlot(ctx); err != nil {
		return "", m.contextError(parent, err)
	}

	if conv == nil {
		var err error
		conv, err = m.connector.Connect(ctx, prior)
		if err != nil {
			return "", errors.Wrap(m.contextError(parent, err), "connect")
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			conv.Close()
			return "", ErrClosed
		}
		m.conv = conv
		m.mu.Unlock()

		m.logger.Debug().Int("seed_turns", len(prior)).Msg("connection opened")
	}

	reply, err := conv.Send(ctx, prompt, onChunk)
	if err != nil {
		return "", m.contextError(parent, err)
	}
	return reply, nil
}

// waitForSlot blocks until the rate limiter admits a request. It fails
// immediately with context.DeadlineExceeded when the wait would outlast
// the deadline.
func (m *Manager) waitForSlot(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}

	r := m.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && time.Now().Add(delay).After(deadline) {
		r.Cancel()
		return context.DeadlineExceeded
	}

	m.logger.Debug().Dur("delay", delay).Msg("rate limited, waiting")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// contextError maps an error raised while the request context was running to
// ErrTimeout when the request deadline, not the caller, ended it.
func (m *Manager) contextError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(ErrTimeout, "after %s", m.timeout)
	}
	return err
}

// =============================================================================
// RESET
// =============================================================================

// Reset clears the history, deletes the store and drops the connection.
// It never contacts the API and succeeds when the store is already absent.
func (m *Manager) Reset() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	dropped := len(m.history)
	m.history = model.History{}
	conv := m.conv
	m.conv = nil
	m.mu.Unlock()

	if conv != nil {
		if err := conv.Close(); err != nil {
			m.logger.Debug().Err(err).Msg("close connection")
		}
	}

	if err := m.store.Delete(); err != nil {
		m.logger.Warn().Err(err).Msg("reset: delete store")
		return errors.Wrap(err, "delete history store")
	}

	m.logger.Info().Int("dropped_turns", dropped).Msg("session reset")
	return nil
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit is the caller-facing entry point. It never returns an error or
// panics: failures become fixed display strings.
//
// A prompt that is exactly ResetCommand resets the session.
func (m *Manager) Submit(ctx context.Context, prompt string, onChunk func(string)) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("exchange panicked")
			reply = FailureMessage
		}
	}()

	if prompt == ResetCommand {
		err := m.Reset()
		switch {
		case err == nil:
			return ResetConfirmation
		case errors.Is(err, ErrBusy):
			return BusyMessage
		case errors.Is(err, ErrClosed):
			return FailureMessage
		default:
			// History is already empty in memory and is saved empty on
			// shutdown, so the reset still takes effect.
			return ResetConfirmation
		}
	}

	reply, err := m.Exchange(ctx, prompt, onChunk)
	switch {
	case err == nil:
		return reply
	case errors.Is(err, ErrBusy):
		return BusyMessage
	case errors.Is(err, ErrTimeout):
		return TimeoutMessage
	default:
		return FailureMessage
	}
}

// =============================================================================
// CLOSE
// =============================================================================

// Close saves the newest turns and drops the connection. An exchange in
// flight is cancelled and Close waits for it to return before touching the
// connection. Only the first call does any work; later calls return the
// first result.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		cancel, idle := m.cancel, m.idle
		m.mu.Unlock()

		if idle != nil {
			cancel()
			select {
			case <-idle:
			case <-time.After(closeDrainTimeout):
				m.logger.Warn().Dur("waited", closeDrainTimeout).Msg("exchange still running at close")
			}
		}

		m.mu.Lock()
		history := m.history.Window(m.maxTurns)
		total := len(m.history)
		conv := m.conv
		m.conv = nil
		m.mu.Unlock()

		if conv != nil {
			conv.Close()
		}

		if err := m.store.Save(history); err != nil {
			m.closeErr = errors.Wrap(err, "save history")
			m.logger.Error().Err(err).Str("store", m.store.Path()).Msg("history save failed")
			return
		}
		m.logger.Info().
			Int("saved_turns", len(history)).
			Int("dropped_turns", total-len(history)).
			Str("store", m.store.Path()).
			Msg("history saved")
	})
	return m.closeErr
}
