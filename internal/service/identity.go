package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
	"github.com/google/uuid"
)

var fallbackNames = map[model.Provider]string{
	model.ProviderGoogle:   "Google User",
	model.ProviderLinkedIn: "LinkedIn User",
}

var errProviderTaken = apperror.NewErrConflict("This account is already linked to another user")

// Identity maps every authentication method onto one user record per email.
type Identity struct {
	userStore model.UserStore
	logger    *logger.Logger
}

func NewIdentity(userStore model.UserStore, logger *logger.Logger) *Identity {
	return &Identity{userStore: userStore, logger: logger}
}

// Unify finds the user for email, links identity to it when the provider is
// not linked yet, or creates the user when none exists. A nil identity is a
// pure lookup and fails with NotFound on a miss.
func (i *Identity) Unify(ctx context.Context, email string, identity *model.Identity) (model.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return model.User{}, apperror.NewErrValidation("Email is required")
	}

	user, err := i.userStore.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return i.link(ctx, user, identity)
	case !errors.Is(err, model.ErrNotFound):
		i.logger.Error("Identity service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if identity == nil {
		return model.User{}, apperror.NewErrNotFound("User not found")
	}

	name := identity.Name
	if name == "" {
		name = fallbackNames[identity.Provider]
	}
	subject := identity.SubjectID
	now := time.Now()
	newUser := model.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch identity.Provider {
	case model.ProviderGoogle:
		newUser.GoogleID = &subject
	case model.ProviderLinkedIn:
		newUser.LinkedInID = &subject
	default:
		return model.User{}, fmt.Errorf("unknown provider %q", identity.Provider)
	}

	created, err := i.userStore.Create(ctx, newUser)
	if errors.Is(err, model.ErrAlreadyExists) {
		// Another request created the email first.
		i.logger.Info("Identity service: concurrent create detected, linking instead",
			"email", email,
			"provider", identity.Provider)
		user, err = i.userStore.GetByEmail(ctx, email)
		if errors.Is(err, model.ErrNotFound) {
			// The conflict was on the provider subject, not the email.
			return model.User{}, errProviderTaken
		}
		if err != nil {
			return model.User{}, fmt.Errorf("failed to re-read user by email: %w", err)
		}
		return i.link(ctx, user, identity)
	}
	if err != nil {
		i.logger.Error("Identity service: failed to create user",
			"email", email,
			"provider", identity.Provider,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	i.logger.Info("Identity service: user created from provider identity",
		"user_id", created.ID,
		"provider", identity.Provider)

	return created, nil
}

func (i *Identity) link(ctx context.Context, user model.User, identity *model.Identity) (model.User, error) {
	if identity == nil || user.SubjectID(identity.Provider) != "" {
		return user, nil
	}

	linked, err := i.userStore.LinkProvider(ctx, user.ID, identity.Provider, identity.SubjectID)
	if errors.Is(err, model.ErrAlreadyExists) {
		return model.User{}, errProviderTaken
	}
	if err != nil {
		i.logger.Error("Identity service: failed to link provider",
			"user_id", user.ID,
			"provider", identity.Provider,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to link provider: %w", err)
	}

	i.logger.Info("Identity service: provider linked",
		"user_id", user.ID,
		"provider", identity.Provider)

	return linked, nil
}
