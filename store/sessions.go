package store

import (
	"context"

	"github.com/tbxark/expenseform"
)

// SessionFactory builds the session for a routing key seen for the first time.
type SessionFactory func(ctx context.Context) (*expenseform.Session, error)

// Sessions hosts independent form sessions in one process, one per routing key.
type Sessions struct {
	store   *Store[*expenseform.Session]
	factory SessionFactory
}

func NewSessions(cache Cache[*expenseform.Session], factory SessionFactory) *Sessions {
	return &Sessions{
		store:   NewStore(cache, "session", KeyOrDefault),
		factory: factory,
	}
}

// Open returns the session routed by ctx, creating it on first use.
func (s *Sessions) Open(ctx context.Context) (*expenseform.Session, error) {
	return s.store.GetOrCreate(ctx, s.factory)
}

// Close drops the session routed by ctx. A later Open starts a fresh one.
func (s *Sessions) Close(ctx context.Context) error {
	return s.store.Del(ctx)
}
