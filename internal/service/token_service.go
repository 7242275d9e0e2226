package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

var errInvalidRefresh = apperror.NewErrAuthentication("Invalid refresh token")

// TokenService provides high-level operations for issuing, refreshing,
// and revoking tokens. It composes the TokenManager and RefreshTokenStore.
type TokenService struct {
	manager    model.TokenManager
	store      model.RefreshTokenStore
	refreshTTL time.Duration
	logger     *logger.Logger
}

// NewTokenService creates a TokenService. refreshTTL must match the lifetime
// the manager embeds in refresh tokens; it is used for persistence only.
func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, refreshTTL time.Duration, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, refreshTTL: refreshTTL, logger: logger}
}

// Issue creates a new session for userID.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (model.Session, error) {
	return s.issue(ctx, userID, nil)
}

// Refresh rotates a refresh token. The presented token is revoked and can
// not be used again.
func (s *TokenService) Refresh(ctx context.Context, presentedRefresh string) (model.Session, error) {
	userID, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return model.Session{}, errInvalidRefresh.Wrap(err)
	}

	rt, err := s.store.GetByJTI(ctx, jti)
	if errors.Is(err, model.ErrNotFound) {
		return model.Session{}, errInvalidRefresh.Wrap(err)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("get refresh: %w", err)
	}

	if err := validateRecord(rt, hashSecret(presentedRefresh), time.Now()); err != nil {
		s.logger.Warn("Token service: refresh token rejected",
			"user_id", userID,
			"jti", jti,
			"reason", err.Error())
		return model.Session{}, errInvalidRefresh.Wrap(err)
	}

	err = s.store.RevokeByJTI(ctx, jti)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("Token service: refresh token already rotated",
			"user_id", userID,
			"jti", jti)
		return model.Session{}, errInvalidRefresh.Wrap(model.ErrTokenRevoked)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("revoke old refresh: %w", err)
	}

	return s.issue(ctx, userID, &rt.JTI)
}

// RevokeByToken revokes the presented refresh token.
func (s *TokenService) RevokeByToken(ctx context.Context, presentedRefresh string) error {
	_, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return errInvalidRefresh.Wrap(err)
	}
	if err := s.store.RevokeByJTI(ctx, jti); err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("revoke refresh: %w", err)
	}
	return nil
}

// RevokeAllForUser ends every live session of userID.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

// GetUserID verifies an access token.
func (s *TokenService) GetUserID(_ context.Context, token string) (uuid.UUID, error) {
	return s.manager.ParseAccessToken(token)
}

// DeleteExpired removes refresh token records that expired at least one
// refresh lifetime ago.
func (s *TokenService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, time.Now().Add(-s.refreshTTL))
}

func (s *TokenService) issue(ctx context.Context, userID uuid.UUID, rotatedFrom *string) (model.Session, error) {
	access, err := s.manager.GenerateAccessToken(userID)
	if err != nil {
		return model.Session{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, jti, err := s.manager.GenerateRefreshToken(userID)
	if err != nil {
		return model.Session{}, fmt.Errorf("issue refresh: %w", err)
	}

	now := time.Now()
	rt := model.RefreshToken{
		ID:             uuid.New(),
		JTI:            jti,
		UserID:         userID,
		TokenHash:      hashSecret(refresh),
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.refreshTTL),
		RotatedFromJTI: rotatedFrom,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, rt); err != nil {
		return model.Session{}, fmt.Errorf("persist refresh: %w", err)
	}

	return model.Session{AccessToken: access, RefreshToken: refresh}, nil
}

func validateRecord(rt model.RefreshToken, presentedHash []byte, now time.Time) error {
	if rt.RevokedAt != nil {
		return model.ErrTokenRevoked
	}
	if now.After(rt.ExpiresAt) {
		return model.ErrTokenExpired
	}
	if !equalBytes(rt.TokenHash, presentedHash) {
		return model.ErrTokenMismatch
	}
	return nil
}
