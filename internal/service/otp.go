package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

const otpDigits = 6

var (
	errOTPEmailInvalid     = apperror.NewErrValidation("Valid email is required")
	errOTPEmailRequired    = apperror.NewErrValidation("Email is required")
	errOTPFieldsRequired   = apperror.NewErrValidation("Email and OTP are required")
	errOTPPasswordRequired = apperror.NewErrValidation("Password is required")
	errAlreadyRegistered   = apperror.NewErrConflict("User already registered. Please sign in instead.")
	errNoChallenge         = apperror.NewErrBadCredentials("OTP expired or not requested. Please request a new OTP.")
	errNoChallengeResend   = apperror.NewErrBadCredentials("No OTP request found. Please request a new OTP.")
	errOTPExpired          = apperror.NewErrBadCredentials("OTP has expired. Please request a new OTP.")
	errOTPExhausted        = apperror.NewErrBadCredentials("Too many failed attempts. Please request a new OTP.")
)

func errInvalidCode(remaining int) *apperror.APIError {
	return apperror.NewErrBadCredentials(fmt.Sprintf("Invalid OTP. %d attempts remaining.", remaining))
}

// OTPRequestResult describes an issued passcode. Code is set only when codes
// are exposed for development.
type OTPRequestResult struct {
	Message   string
	ExpiresIn time.Duration
	Code      string
}

// OTP implements passcode gated registration.
type OTP struct {
	challenges   model.ChallengeStore
	userStore    model.UserStore
	tokenService *TokenService
	hasher       PasswordHasher
	mailer       model.Mailer
	exposeCode   bool
	now          func() time.Time
	logger       *logger.Logger
}

func NewOTP(
	challenges model.ChallengeStore,
	userStore model.UserStore,
	tokenService *TokenService,
	hasher PasswordHasher,
	mailer model.Mailer,
	exposeCode bool,
	logger *logger.Logger,
) *OTP {
	return &OTP{
		challenges:   challenges,
		userStore:    userStore,
		tokenService: tokenService,
		hasher:       hasher,
		mailer:       mailer,
		exposeCode:   exposeCode,
		now:          time.Now,
		logger:       logger,
	}
}

// Request creates or replaces the pending challenge for email.
func (o *OTP) Request(ctx context.Context, email, name, purpose string) (OTPRequestResult, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return OTPRequestResult{}, errOTPEmailInvalid
	}
	if purpose == "" {
		purpose = model.PurposeRegistration
	}

	if purpose == model.PurposeRegistration {
		registered, err := o.registered(ctx, email)
		if err != nil {
			return OTPRequestResult{}, err
		}
		if registered {
			o.logger.Info("OTP service: code requested for registered email", "email", email)
			return OTPRequestResult{}, errAlreadyRegistered
		}
	}

	code, err := randomDigits(otpDigits)
	if err != nil {
		return OTPRequestResult{}, err
	}

	err = o.challenges.Set(ctx, email, model.Challenge{
		Code:      code,
		ExpiresAt: o.now().Add(model.OTPLifetime),
		Purpose:   purpose,
		Name:      strings.TrimSpace(name),
	})
	if err != nil {
		o.logger.Error("OTP service: failed to store challenge",
			"email", email,
			"error", err.Error())
		return OTPRequestResult{}, fmt.Errorf("failed to store challenge: %w", err)
	}

	o.logger.Info("OTP service: challenge created", "email", email, "purpose", purpose)

	return o.deliver(ctx, email, strings.TrimSpace(name), code, "OTP sent successfully to your email", "OTP generated successfully"), nil
}

// Verify checks code against the pending challenge and, on a match, creates
// the verified account and issues a session.
func (o *OTP) Verify(ctx context.Context, email, code, name, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return LoginResult{}, errOTPFieldsRequired
	}
	if password == "" {
		return LoginResult{}, errOTPPasswordRequired
	}
	if err := checkPasswordLength(password); err != nil {
		return LoginResult{}, err
	}

	// Hashed up front so a hashing failure never consumes a matching code.
	hash, err := o.hasher.Hash(password)
	if err != nil {
		return LoginResult{}, err
	}

	var matched model.Challenge
	err = o.challenges.Update(ctx, email, func(c model.Challenge) (model.Challenge, bool, error) {
		if o.now().After(c.ExpiresAt) {
			return c, false, errOTPExpired
		}
		if c.Attempts >= model.OTPMaxAttempts {
			return c, false, errOTPExhausted
		}
		if !equalStrings(c.Code, code) {
			c.Attempts++
			remaining := model.OTPMaxAttempts - c.Attempts
			return c, remaining > 0, errInvalidCode(remaining)
		}
		matched = c
		return c, false, nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, errNoChallenge
	}
	if err != nil {
		if _, ok := apperror.As(err); ok {
			o.logger.Info("OTP service: verification rejected",
				"email", email,
				"reason", err.Error())
			return LoginResult{}, err
		}
		return LoginResult{}, fmt.Errorf("failed to update challenge: %w", err)
	}

	registered, err := o.registered(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if registered {
		return LoginResult{}, errAlreadyRegistered
	}

	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = matched.Name
	}

	now := time.Now()
	user, err := o.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Name:         displayName,
		Email:        email,
		PasswordHash: &hash,
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrAlreadyExists) {
		o.logger.Info("OTP service: concurrent registration detected", "email", email)
		return LoginResult{}, errAlreadyRegistered
	}
	if err != nil {
		o.logger.Error("OTP service: failed to create user",
			"email", email,
			"error", err.Error())
		return LoginResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := o.tokenService.Issue(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	o.logger.Info("OTP service: registration completed", "user_id", user.ID)

	return LoginResult{User: user, Session: session}, nil
}

// Resend replaces the code of an existing challenge, keeping its name and
// purpose.
func (o *OTP) Resend(ctx context.Context, email string) (OTPRequestResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return OTPRequestResult{}, errOTPEmailRequired
	}

	code, err := randomDigits(otpDigits)
	if err != nil {
		return OTPRequestResult{}, err
	}

	var name string
	err = o.challenges.Update(ctx, email, func(c model.Challenge) (model.Challenge, bool, error) {
		c.Code = code
		c.Attempts = 0
		c.ExpiresAt = o.now().Add(model.OTPLifetime)
		name = c.Name
		return c, true, nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return OTPRequestResult{}, errNoChallengeResend
	}
	if err != nil {
		return OTPRequestResult{}, fmt.Errorf("failed to update challenge: %w", err)
	}

	o.logger.Info("OTP service: challenge renewed", "email", email)

	return o.deliver(ctx, email, name, code, "New OTP sent successfully to your email", "New OTP generated successfully"), nil
}

// deliver sends the code. Mail failures leave the challenge valid.
func (o *OTP) deliver(ctx context.Context, email, name, code, sentMessage, fallbackMessage string) OTPRequestResult {
	result := OTPRequestResult{Message: sentMessage, ExpiresIn: model.OTPLifetime}

	if err := o.mailer.SendOTP(ctx, email, name, code); err != nil {
		o.logger.Warn("OTP service: failed to deliver code",
			"email", email,
			"error", err.Error())
		result.Message = fallbackMessage
	}

	if o.exposeCode {
		o.logger.Debug("OTP service: exposing code", "email", email, "code", code)
		result.Code = code
	}
	return result
}

func (o *OTP) registered(ctx context.Context, email string) (bool, error) {
	_, err := o.userStore.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	o.logger.Error("OTP service: failed to get user by email",
		"email", email,
		"error", err.Error())
	return false, fmt.Errorf("failed to get user by email: %w", err)
}
