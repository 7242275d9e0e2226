package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

const exchangeCodeBytes = 32

var errInvalidExchange = apperror.NewErrAuthentication("Invalid or expired login code")

// Exchange hands out one-time codes that are redeemed for a session, so
// redirects never carry bearer tokens.
type Exchange struct {
	codes  model.ExchangeStore
	auth   *Auth
	now    func() time.Time
	logger *logger.Logger
}

func NewExchange(codes model.ExchangeStore, auth *Auth, logger *logger.Logger) *Exchange {
	return &Exchange{codes: codes, auth: auth, now: time.Now, logger: logger}
}

// Create stores a new code for userID.
func (e *Exchange) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	raw, err := randomBytes(exchangeCodeBytes)
	if err != nil {
		return "", err
	}
	code := base64.RawURLEncoding.EncodeToString(raw)

	grant := model.ExchangeGrant{UserID: userID, ExpiresAt: e.now().Add(model.ExchangeCodeLifetime)}
	if err := e.codes.Set(ctx, code, grant); err != nil {
		return "", fmt.Errorf("failed to store exchange code: %w", err)
	}
	return code, nil
}

// Redeem consumes code and issues a session for its user.
func (e *Exchange) Redeem(ctx context.Context, code string) (LoginResult, error) {
	if code == "" {
		return LoginResult{}, errInvalidExchange
	}

	grant, err := e.codes.Take(ctx, code)
	if errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, errInvalidExchange
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to take exchange code: %w", err)
	}
	if e.now().After(grant.ExpiresAt) {
		e.logger.Info("Exchange service: expired code presented", "user_id", grant.UserID)
		return LoginResult{}, errInvalidExchange
	}

	return e.auth.StartSession(ctx, grant.UserID)
}
