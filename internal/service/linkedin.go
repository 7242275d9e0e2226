package service

import (
	"context"
	"fmt"

	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

// LinkedIn runs the server side of the LinkedIn login.
type LinkedIn struct {
	client   model.LinkedInClient
	identity *Identity
	exchange *Exchange
	logger   *logger.Logger
}

func NewLinkedIn(client model.LinkedInClient, identity *Identity, exchange *Exchange, logger *logger.Logger) *LinkedIn {
	return &LinkedIn{client: client, identity: identity, exchange: exchange, logger: logger}
}

// AuthorizationURL returns the provider consent URL carrying state.
func (l *LinkedIn) AuthorizationURL(state string) string {
	return l.client.AuthCodeURL(state)
}

// Complete exchanges the authorization code, unifies the identity and
// returns a one-time login exchange code. Provider failures wrap the model
// provider errors.
func (l *LinkedIn) Complete(ctx context.Context, code string) (string, error) {
	profile, err := l.client.Exchange(ctx, code)
	if err != nil {
		l.logger.Warn("LinkedIn service: provider exchange failed", "error", err.Error())
		return "", fmt.Errorf("linkedin exchange: %w", err)
	}
	if profile.Email == "" {
		return "", model.ErrProfileEmailMissing
	}
	if profile.SubjectID == "" {
		l.logger.Warn("LinkedIn service: profile without subject", "email", profile.Email)
		return "", model.ErrProfileSubjectMissing
	}

	user, err := l.identity.Unify(ctx, profile.Email, &model.Identity{
		Provider:  model.ProviderLinkedIn,
		SubjectID: profile.SubjectID,
		Name:      profile.Name,
	})
	if err != nil {
		return "", err
	}

	exchangeCode, err := l.exchange.Create(ctx, user.ID)
	if err != nil {
		return "", err
	}

	l.logger.Info("LinkedIn service: login completed", "user_id", user.ID)

	return exchangeCode, nil
}
