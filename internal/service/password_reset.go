package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

const (
	resetTokenBytes = 20
	resetLifetime   = time.Hour

	resetSentMessage      = "A password reset link has been sent to your email."
	resetUnknownMessage   = "You are not registered!"
	resetCompletedMessage = "Your password reset was successful!"
)

var (
	errResetEmailRequired = apperror.NewErrValidation("Email is required")
	errResetFields        = apperror.NewErrValidation("Password, token and user id are required")
	errResetInvalid       = apperror.NewErrBadCredentials("Invalid or expired reset link!")
	errResetExpired       = apperror.NewErrBadCredentials("Reset Password link has expired!")
	errResetMismatch      = apperror.NewErrBadCredentials("Reset Password link is invalid!")
)

// ResetResult is the outcome of a reset request. Sent is false when the
// email is unknown and unknown emails are not concealed.
type ResetResult struct {
	Sent    bool
	Message string
}

// PasswordReset issues and redeems emailed password reset links.
type PasswordReset struct {
	userStore      model.UserStore
	tokenService   *TokenService
	hasher         PasswordHasher
	mailer         model.Mailer
	frontendURL    string
	concealUnknown bool
	now            func() time.Time
	logger         *logger.Logger
}

func NewPasswordReset(
	userStore model.UserStore,
	tokenService *TokenService,
	hasher PasswordHasher,
	mailer model.Mailer,
	frontendURL string,
	concealUnknown bool,
	logger *logger.Logger,
) *PasswordReset {
	return &PasswordReset{
		userStore:      userStore,
		tokenService:   tokenService,
		hasher:         hasher,
		mailer:         mailer,
		frontendURL:    frontendURL,
		concealUnknown: concealUnknown,
		now:            time.Now,
		logger:         logger,
	}
}

// Initiate stores a fresh reset token for email and mails the link.
func (p *PasswordReset) Initiate(ctx context.Context, email string) (ResetResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return ResetResult{}, errResetEmailRequired
	}

	user, err := p.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		p.logger.Info("Password reset service: unknown email", "email", email)
		if p.concealUnknown {
			return ResetResult{Sent: true, Message: resetSentMessage}, nil
		}
		return ResetResult{Sent: false, Message: resetUnknownMessage}, nil
	}
	if err != nil {
		return ResetResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	raw, err := randomBytes(resetTokenBytes)
	if err != nil {
		return ResetResult{}, err
	}
	token := hex.EncodeToString(raw)

	if err := p.userStore.SetResetToken(ctx, user.ID, hashSecret(token), p.now().Add(resetLifetime)); err != nil {
		p.logger.Error("Password reset service: failed to store token",
			"user_id", user.ID,
			"error", err.Error())
		return ResetResult{}, fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := p.mailer.SendPasswordReset(ctx, email, p.resetLink(user.ID, token)); err != nil {
		p.logger.Warn("Password reset service: failed to deliver link",
			"user_id", user.ID,
			"error", err.Error())
	}

	p.logger.Info("Password reset service: reset initiated", "user_id", user.ID)

	return ResetResult{Sent: true, Message: resetSentMessage}, nil
}

// Complete sets a new password when token matches the live reset token of
// userID and ends every session of that user. The token is single use.
func (p *PasswordReset) Complete(ctx context.Context, userID, token, password string) (string, error) {
	if userID == "" || token == "" || password == "" {
		return "", errResetFields
	}
	if err := checkPasswordLength(password); err != nil {
		return "", err
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return "", errResetInvalid
	}

	user, err := p.userStore.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return "", errResetInvalid
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user by id: %w", err)
	}

	if len(user.ResetTokenHash) == 0 || user.ResetExpiresAt == nil {
		return "", errResetInvalid
	}
	if p.now().After(*user.ResetExpiresAt) {
		p.logger.Info("Password reset service: expired token", "user_id", id)
		return "", errResetExpired
	}
	tokenHash := hashSecret(token)
	if !equalBytes(user.ResetTokenHash, tokenHash) {
		p.logger.Info("Password reset service: token mismatch", "user_id", id)
		return "", errResetMismatch
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	err = p.userStore.ResetPassword(ctx, id, tokenHash, hash)
	if errors.Is(err, model.ErrNotFound) {
		// Token was consumed by a concurrent request.
		return "", errResetInvalid
	}
	if err != nil {
		p.logger.Error("Password reset service: failed to update password",
			"user_id", id,
			"error", err.Error())
		return "", fmt.Errorf("failed to reset password: %w", err)
	}

	if err := p.tokenService.RevokeAllForUser(ctx, id); err != nil {
		p.logger.Error("Password reset service: failed to revoke sessions",
			"user_id", id,
			"error", err.Error())
		return "", fmt.Errorf("failed to revoke sessions: %w", err)
	}

	p.logger.Info("Password reset service: password updated", "user_id", id)

	return resetCompletedMessage, nil
}

func (p *PasswordReset) resetLink(userID uuid.UUID, token string) string {
	q := url.Values{}
	q.Set("id", userID.String())
	q.Set("token", token)
	return p.frontendURL + "/reset-password?" + q.Encode()
}
