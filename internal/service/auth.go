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

var (
	errFieldsRequired     = apperror.NewErrValidation("All fields are required")
	errInvalidEmail       = apperror.NewErrValidation("Valid email is required")
	errEmailRegistered    = apperror.NewErrConflict("Email already registered")
	errInvalidCredentials = apperror.NewErrBadCredentials("Invalid email or password")
	errInvalidGoogle      = apperror.NewErrValidation("Invalid Google credential data")
	errMissingGoogle      = apperror.NewErrValidation("Missing Google credential")
	errUnauthorized       = apperror.NewErrAuthentication("Invalid token")
	errUserGone           = apperror.NewErrAuthentication("User not found")
)

// LoginResult is returned by every flow that completes a login.
type LoginResult struct {
	User    model.User
	Session model.Session
}

// Auth implements direct registration, password login, Google sign-in and
// bearer token authentication.
type Auth struct {
	userStore    model.UserStore
	identity     *Identity
	tokenService *TokenService
	hasher       PasswordHasher
	google       model.GoogleDecoder
	logger       *logger.Logger
}

func NewAuth(
	userStore model.UserStore,
	identity *Identity,
	tokenService *TokenService,
	hasher PasswordHasher,
	google model.GoogleDecoder,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		identity:     identity,
		tokenService: tokenService,
		hasher:       hasher,
		google:       google,
		logger:       logger,
	}
}

// Register creates an unverified local account.
func (a *Auth) Register(ctx context.Context, name, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return model.User{}, errFieldsRequired
	}
	if !validEmail(email) {
		return model.User{}, errInvalidEmail
	}
	if err := checkPasswordLength(password); err != nil {
		return model.User{}, err
	}

	a.logger.Debug("Auth service: registering user", "email", email)

	_, err := a.userStore.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: user already exists", "email", email)
		return model.User{}, errEmailRegistered
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	now := time.Now()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrAlreadyExists) {
		return model.User{}, errEmailRegistered
	}
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registered", "user_id", user.ID)

	return user, nil
}

// Login checks a password and issues a session. Unknown emails, accounts
// without a password and wrong passwords are indistinguishable.
func (a *Auth) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, errInvalidCredentials
	}

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: login for unknown email", "email", email)
		return LoginResult{}, errInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.PasswordHash == nil || !a.hasher.Compare(*user.PasswordHash, password) {
		a.logger.Info("Auth service: invalid password", "user_id", user.ID)
		return LoginResult{}, errInvalidCredentials
	}

	return a.startSession(ctx, user)
}

// Google signs in with a Google ID credential.
func (a *Auth) Google(ctx context.Context, credential string) (LoginResult, error) {
	if credential == "" {
		return LoginResult{}, errMissingGoogle
	}

	profile, err := a.google.Decode(credential)
	if err != nil {
		a.logger.Info("Auth service: google credential rejected", "error", err.Error())
		return LoginResult{}, errInvalidGoogle.Wrap(err)
	}
	if profile.Email == "" || profile.SubjectID == "" {
		return LoginResult{}, errInvalidGoogle
	}

	user, err := a.identity.Unify(ctx, profile.Email, &model.Identity{
		Provider:  model.ProviderGoogle,
		SubjectID: profile.SubjectID,
		Name:      profile.Name,
	})
	if err != nil {
		return LoginResult{}, err
	}

	return a.startSession(ctx, user)
}

// Authenticate resolves an access token to an existing user.
func (a *Auth) Authenticate(ctx context.Context, accessToken string) (model.User, error) {
	userID, err := a.tokenService.GetUserID(ctx, accessToken)
	if err != nil {
		return model.User{}, errUnauthorized.Wrap(err)
	}

	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, errUserGone
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// StartSession issues a session for an already authenticated user.
func (a *Auth) StartSession(ctx context.Context, userID uuid.UUID) (LoginResult, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, errUserGone
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return a.startSession(ctx, user)
}

func (a *Auth) startSession(ctx context.Context, user model.User) (LoginResult, error) {
	session, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue session",
			"user_id", user.ID,
			"error", err.Error())
		return LoginResult{}, err
	}

	a.logger.Info("Auth service: session issued", "user_id", user.ID)

	return LoginResult{User: user, Session: session}, nil
}
