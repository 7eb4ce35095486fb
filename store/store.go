package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrKeyNotFound = errors.New("routing key not found in context")

// KeyFunc resolves the routing key of a request.
type KeyFunc func(ctx context.Context) (string, bool)

// Store holds one value per routing key inside a namespace of a shared Cache.
type Store[S any] struct {
	mu        sync.Mutex
	cache     Cache[S]
	namespace string
	keyOf     KeyFunc
}

// NewStore routes with KeyFromContext when keyOf is nil and keeps values in memory when
// cache is nil.
func NewStore[S any](cache Cache[S], namespace string, keyOf KeyFunc) *Store[S] {
	if cache == nil {
		cache = NewMemoryCache[S]()
	}
	if keyOf == nil {
		keyOf = KeyFromContext
	}
	return &Store[S]{cache: cache, namespace: namespace, keyOf: keyOf}
}

func (s *Store[S]) entryKey(ctx context.Context) (string, error) {
	key, ok := s.keyOf(ctx)
	if !ok {
		return "", ErrKeyNotFound
	}
	return s.namespace + ":" + key, nil
}

func (s *Store[S]) Get(ctx context.Context) (S, bool, error) {
	var zero S
	key, err := s.entryKey(ctx)
	if err != nil {
		return zero, false, err
	}
	return s.cache.Get(ctx, key)
}

func (s *Store[S]) Set(ctx context.Context, val S) error {
	key, err := s.entryKey(ctx)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, val)
}

func (s *Store[S]) Del(ctx context.Context) error {
	key, err := s.entryKey(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Del(ctx, key)
}

// GetOrCreate returns the value routed by ctx, building and storing it with create on first
// use. Concurrent callers for one store see a single created value.
func (s *Store[S]) GetOrCreate(ctx context.Context, create func(ctx context.Context) (S, error)) (S, error) {
	var zero S
	key, err := s.entryKey(ctx)
	if err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok, err := s.cache.Get(ctx, key)
	if err != nil || ok {
		return val, err
	}
	val, err = create(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to create %s entry: %w", s.namespace, err)
	}
	if err := s.cache.Set(ctx, key, val); err != nil {
		return zero, err
	}
	return val, nil
}
