package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/repository/memory"
	"github.com/dtroode/feedback-server/internal/testutil"
)

type sweeperFunc func(ctx context.Context) (int, error)

func (f sweeperFunc) Sweep(ctx context.Context) (int, error) { return f(ctx) }

type deleterFunc func(ctx context.Context) (int64, error)

func (f deleterFunc) DeleteExpired(ctx context.Context) (int64, error) { return f(ctx) }

func TestJanitor_RunOnce(t *testing.T) {
	ctx := context.Background()
	challenges := memory.NewStore[model.Challenge]()
	codes := memory.NewStore[model.ExchangeGrant]()
	past := time.Now().Add(-time.Minute)

	require.NoError(t, challenges.Set(ctx, "old@x.com", model.Challenge{ExpiresAt: past}))
	require.NoError(t, challenges.Set(ctx, "new@x.com", model.Challenge{ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, codes.Set(ctx, "code", model.ExchangeGrant{ExpiresAt: past}))

	var deleted bool
	j := NewJanitor(challenges, codes, deleterFunc(func(context.Context) (int64, error) {
		deleted = true
		return 1, nil
	}), time.Minute, testutil.MakeNoopLogger())

	j.RunOnce(ctx)

	assert.Equal(t, 1, challenges.Len())
	assert.Equal(t, 0, codes.Len())
	assert.True(t, deleted)
}

func TestJanitor_RunOnce_ContinuesAfterErrors(t *testing.T) {
	calls := 0
	failing := sweeperFunc(func(context.Context) (int, error) {
		calls++
		return 0, assert.AnError
	})
	j := NewJanitor(failing, failing, deleterFunc(func(context.Context) (int64, error) {
		calls++
		return 0, assert.AnError
	}), time.Minute, testutil.MakeNoopLogger())

	j.RunOnce(context.Background())
	assert.Equal(t, 3, calls)
}

func TestJanitor_Run_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sweeps := make(chan struct{}, 10)
	sweeper := sweeperFunc(func(context.Context) (int, error) {
		select {
		case sweeps <- struct{}{}:
		default:
		}
		return 0, nil
	})
	j := NewJanitor(sweeper, sweeperFunc(func(context.Context) (int, error) { return 0, nil }),
		deleterFunc(func(context.Context) (int64, error) { return 0, nil }), 5*time.Millisecond, testutil.MakeNoopLogger())

	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	select {
	case <-sweeps:
	case <-time.After(time.Second):
		t.Fatal("janitor did not sweep")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestJanitor_AddSweeper(t *testing.T) {
	noop := sweeperFunc(func(context.Context) (int, error) { return 0, nil })
	j := NewJanitor(noop, noop, deleterFunc(func(context.Context) (int64, error) { return 0, nil }),
		time.Minute, testutil.MakeNoopLogger())

	var extraCalls int
	j.AddSweeper("rate_limiter", sweeperFunc(func(context.Context) (int, error) {
		extraCalls++
		return 2, nil
	}))
	j.AddSweeper("broken", sweeperFunc(func(context.Context) (int, error) {
		extraCalls++
		return 0, assert.AnError
	}))

	j.RunOnce(context.Background())
	assert.Equal(t, 2, extraCalls)
}
