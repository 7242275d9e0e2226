// Package memory keeps short-lived state in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dtroode/feedback-server/internal/model"
)

var (
	_ model.ChallengeStore = (*Store[model.Challenge])(nil)
	_ model.ExchangeStore  = (*Store[model.ExchangeGrant])(nil)
)

// Store is a mutex guarded map implementing model.ExpiringStore. Entries are
// lost on restart.
type Store[V model.Expirable] struct {
	mu      sync.Mutex
	entries map[string]V
	now     func() time.Time
}

func NewStore[V model.Expirable]() *Store[V] {
	return &Store[V]{
		entries: make(map[string]V),
		now:     time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.entries[key]
	if !ok {
		return v, model.ErrNotFound
	}
	return v, nil
}

func (s *Store[V]) Set(_ context.Context, key string, value V) error {
	s.mu.Lock()
	s.entries[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Store[V]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *Store[V]) Take(_ context.Context, key string) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.entries[key]
	if !ok {
		return v, model.ErrNotFound
	}
	delete(s.entries, key)
	return v, nil
}

func (s *Store[V]) Update(_ context.Context, key string, fn model.UpdateFunc[V]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[key]
	if !ok {
		return model.ErrNotFound
	}

	next, keep, err := fn(current)
	if keep {
		s.entries[key] = next
	} else {
		delete(s.entries, key)
	}
	return err
}

func (s *Store[V]) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, v := range s.entries {
		if now.After(v.Expiry()) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of entries, expired or not.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
