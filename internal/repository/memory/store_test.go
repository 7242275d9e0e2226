package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/feedback-server/internal/model"
)

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore[model.Challenge]()

	_, err := s.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, model.ErrNotFound)

	c := model.Challenge{Code: "123456", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, s.Set(ctx, "a@x.com", c))

	got, err := s.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	require.NoError(t, s.Delete(ctx, "a@x.com"))
	_, err = s.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore[model.Challenge]()

	require.NoError(t, s.Set(ctx, "a@x.com", model.Challenge{Code: "111111", Attempts: 2}))
	require.NoError(t, s.Set(ctx, "a@x.com", model.Challenge{Code: "222222"}))

	got, err := s.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)
	assert.Equal(t, 0, got.Attempts)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Take(t *testing.T) {
	ctx := context.Background()
	s := NewStore[model.ExchangeGrant]()

	require.NoError(t, s.Set(ctx, "code", model.ExchangeGrant{ExpiresAt: time.Now().Add(time.Minute)}))

	_, err := s.Take(ctx, "code")
	require.NoError(t, err)

	_, err = s.Take(ctx, "code")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	errWrong := errors.New("wrong")

	t.Run("missing key", func(t *testing.T) {
		s := NewStore[model.Challenge]()
		err := s.Update(ctx, "k", func(c model.Challenge) (model.Challenge, bool, error) {
			t.Fatal("fn must not be called")
			return c, true, nil
		})
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("keep applies mutation and returns error", func(t *testing.T) {
		s := NewStore[model.Challenge]()
		require.NoError(t, s.Set(ctx, "k", model.Challenge{}))

		err := s.Update(ctx, "k", func(c model.Challenge) (model.Challenge, bool, error) {
			c.Attempts++
			return c, true, errWrong
		})
		require.ErrorIs(t, err, errWrong)

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Attempts)
	})

	t.Run("drop deletes", func(t *testing.T) {
		s := NewStore[model.Challenge]()
		require.NoError(t, s.Set(ctx, "k", model.Challenge{}))

		err := s.Update(ctx, "k", func(c model.Challenge) (model.Challenge, bool, error) {
			return c, false, nil
		})
		require.NoError(t, err)

		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestStore_UpdateConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewStore[model.Challenge]()
	require.NoError(t, s.Set(ctx, "k", model.Challenge{}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "k", func(c model.Challenge) (model.Challenge, bool, error) {
				c.Attempts++
				return c, true, nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Attempts)
}

func TestStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore[model.Challenge]()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "expired", model.Challenge{ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, s.Set(ctx, "live", model.Challenge{ExpiresAt: now.Add(time.Minute)}))

	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Get(ctx, "expired")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.Get(ctx, "live")
	require.NoError(t, err)
}

func TestStore_GetReturnsExpiredUntilSwept(t *testing.T) {
	ctx := context.Background()
	s := NewStore[model.Challenge]()

	require.NoError(t, s.Set(ctx, "k", model.Challenge{ExpiresAt: time.Now().Add(-time.Hour)}))

	_, err := s.Get(ctx, "k")
	require.NoError(t, err)
}
