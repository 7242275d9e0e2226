// Package redis keeps short-lived state in Redis so several server
// instances can share OTP challenges and exchange codes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dtroode/feedback-server/internal/model"
)

const (
	ChallengePrefix = "otp:"
	ExchangePrefix  = "xchg:"

	// DefaultGrace keeps expired entries around long enough for callers to
	// report them as expired rather than unknown.
	DefaultGrace = 10 * time.Minute

	maxUpdateRetries = 4
)

var (
	_ model.ChallengeStore = (*Store[model.Challenge])(nil)
	_ model.ExchangeStore  = (*Store[model.ExchangeGrant])(nil)
)

var errContention = errors.New("redis store: update retries exhausted")

// Store implements model.ExpiringStore on top of Redis strings holding JSON.
// Entries live until their expiry plus a grace period; Redis evicts them
// after that, so Sweep has nothing to do.
type Store[V model.Expirable] struct {
	client goredis.UniversalClient
	prefix string
	grace  time.Duration
	now    func() time.Time
}

func NewStore[V model.Expirable](client goredis.UniversalClient, prefix string, grace time.Duration) *Store[V] {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Store[V]{
		client: client,
		prefix: prefix,
		grace:  grace,
		now:    time.Now,
	}
}

func (s *Store[V]) key(k string) string {
	return s.prefix + k
}

func (s *Store[V]) ttl(v V) time.Duration {
	ttl := v.Expiry().Sub(s.now()) + s.grace
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (s *Store[V]) decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode entry: %w", err)
	}
	return v, nil
}

func (s *Store[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return zero, model.ErrNotFound
		}
		return zero, fmt.Errorf("failed to get entry: %w", err)
	}
	return s.decode(data)
}

func (s *Store[V]) Set(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl(value)).Err(); err != nil {
		return fmt.Errorf("failed to set entry: %w", err)
	}
	return nil
}

func (s *Store[V]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func (s *Store[V]) Take(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := s.client.GetDel(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return zero, model.ErrNotFound
		}
		return zero, fmt.Errorf("failed to take entry: %w", err)
	}
	return s.decode(data)
}

// Update runs fn inside an optimistic WATCH transaction. fn may run more
// than once when another writer touches the key concurrently.
func (s *Store[V]) Update(ctx context.Context, key string, fn model.UpdateFunc[V]) error {
	k := s.key(key)

	for i := 0; i < maxUpdateRetries; i++ {
		var fnErr error

		err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
			data, err := tx.Get(ctx, k).Bytes()
			if err != nil {
				return err
			}
			current, err := s.decode(data)
			if err != nil {
				return err
			}

			next, keep, err := fn(current)
			fnErr = err

			var encoded []byte
			if keep {
				if encoded, err = json.Marshal(next); err != nil {
					return fmt.Errorf("failed to encode entry: %w", err)
				}
			}

			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				if keep {
					pipe.Set(ctx, k, encoded, s.ttl(next))
				} else {
					pipe.Del(ctx, k)
				}
				return nil
			})
			return err
		}, k)

		switch {
		case errors.Is(err, goredis.TxFailedErr):
			continue
		case errors.Is(err, goredis.Nil):
			return model.ErrNotFound
		case err != nil:
			return fmt.Errorf("failed to update entry: %w", err)
		}
		return fnErr
	}

	return errContention
}

// Sweep is a no-op; Redis expires keys on its own.
func (s *Store[V]) Sweep(context.Context) (int, error) {
	return 0, nil
}
