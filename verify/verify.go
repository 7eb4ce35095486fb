// Package verify describes the human-verification collaborator. The core only sees opaque
// tokens.
package verify

import (
	"context"
	"sync"
)

type Verifier interface {
	// RequestToken asks for a fresh challenge. Widgets that deliver the token later return
	// an empty string and hand the token to the session when it arrives.
	RequestToken(ctx context.Context) (string, error)
	// Invalidate discards the current challenge.
	Invalidate(ctx context.Context) error
}

// Manual hands out queued tokens. It backs the CLI and tests.
type Manual struct {
	mu            sync.Mutex
	tokens        []string
	requests      int
	invalidations int
}

func NewManual(tokens ...string) *Manual {
	return &Manual{tokens: tokens}
}

var _ Verifier = (*Manual)(nil)

func (m *Manual) Push(tokens ...string) {
	m.mu.Lock()
	m.tokens = append(m.tokens, tokens...)
	m.mu.Unlock()
}

func (m *Manual) RequestToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	if len(m.tokens) == 0 {
		return "", nil
	}
	token := m.tokens[0]
	m.tokens = m.tokens[1:]
	return token, nil
}

func (m *Manual) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	m.invalidations++
	m.mu.Unlock()
	return nil
}

func (m *Manual) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

func (m *Manual) Invalidations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidations
}
