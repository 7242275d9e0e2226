package model

import (
	"context"
	"time"
)

// Expirable is implemented by values kept in an ExpiringStore.
type Expirable interface {
	Expiry() time.Time
}

// UpdateFunc receives the current value and decides the next state. When keep
// is false the entry is deleted. The mutation is applied even when err is not
// nil; err is passed back to the caller of Update.
type UpdateFunc[V Expirable] func(current V) (next V, keep bool, err error)

// ExpiringStore is a keyed store of short-lived values. Expired entries stay
// readable until swept so callers can tell "expired" from "never existed".
type ExpiringStore[V Expirable] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V) error
	Delete(ctx context.Context, key string) error
	// Take returns and removes the entry atomically.
	Take(ctx context.Context, key string) (V, error)
	// Update applies fn atomically with respect to other calls for key.
	Update(ctx context.Context, key string, fn UpdateFunc[V]) error
	// Sweep removes entries whose expiry has passed and reports how many.
	Sweep(ctx context.Context) (int, error)
}
