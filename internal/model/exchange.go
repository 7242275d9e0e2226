package model

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeCodeLifetime bounds how long a login exchange code can be redeemed.
const ExchangeCodeLifetime = time.Minute

// ExchangeGrant is what a one-time login exchange code resolves to.
type ExchangeGrant struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expiry implements Expirable.
func (g ExchangeGrant) Expiry() time.Time { return g.ExpiresAt }

// ExchangeStore keeps outstanding login exchange codes.
type ExchangeStore = ExpiringStore[ExchangeGrant]
