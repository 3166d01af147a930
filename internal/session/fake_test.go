// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/gemchat/internal/model"
)

// fakeConnector records every Connect and hands out fakeConversations that
// share its scripted behavior.
type fakeConnector struct {
	mu sync.Mutex

	seeds      []model.History
	prompts    []string
	connectErr error

	// reply builds the answer for a prompt. Defaults to "reply to <prompt>".
	reply func(ctx context.Context, prompt string) (string, error)

	closed int
}

func (f *fakeConnector) Connect(ctx context.Context, history model.History) (Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	f.seeds = append(f.seeds, history.Clone())
	return &fakeConversation{parent: f}, nil
}

func (f *fakeConnector) connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seeds)
}

func (f *fakeConnector) lastSeed() model.History {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seeds[len(f.seeds)-1]
}

func (f *fakeConnector) closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConnector) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

type fakeConversation struct {
	parent *fakeConnector
	closed bool
}

func (c *fakeConversation) Send(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	c.parent.mu.Lock()
	if c.closed {
		c.parent.mu.Unlock()
		return "", errors.New("send on closed conversation")
	}
	c.parent.prompts = append(c.parent.prompts, prompt)
	reply := c.parent.reply
	c.parent.mu.Unlock()

	if reply == nil {
		out := "reply to " + prompt
		if onChunk != nil {
			onChunk("reply to ")
			onChunk(prompt)
		}
		return out, nil
	}
	return reply(ctx, prompt)
}

func (c *fakeConversation) Close() error {
	c.parent.mu.Lock()
	c.closed = true
	c.parent.closed++
	c.parent.mu.Unlock()
	return nil
}

// memStore is an in-memory HistoryStore that counts calls.
type memStore struct {
	mu      sync.Mutex
	saved   model.History
	exists  bool
	saves   int
	deletes int
	saveErr error
	loadErr error
}

func (s *memStore) Load() (model.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if !s.exists {
		return model.History{}, nil
	}
	return s.saved.Clone(), nil
}

func (s *memStore) Save(h model.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = h.Clone()
	s.exists = true
	return nil
}

func (s *memStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	s.saved = nil
	s.exists = false
	return nil
}

func (s *memStore) Path() string { return "mem://history" }
