package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager carries the authenticated user between the bearer token
// middleware and the handlers behind it.
type ContextManager interface {
	SetUserIDToContext(ctx context.Context, userID uuid.UUID) context.Context
	// GetUserIDFromContext reports false when no user was authenticated.
	GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool)
}
