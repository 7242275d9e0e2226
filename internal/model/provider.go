package model

import (
	"context"
	"errors"
)

// ProviderProfile holds the identity attributes asserted by a provider.
type ProviderProfile struct {
	Email     string
	SubjectID string
	Name      string
}

// GoogleDecoder extracts the profile from a Google ID credential.
type GoogleDecoder interface {
	Decode(credential string) (ProviderProfile, error)
}

// LinkedInClient runs the server side of the LinkedIn authorization code flow.
type LinkedInClient interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (ProviderProfile, error)
}

var (
	// ErrProfileEmailMissing means the provider returned no email address.
	ErrProfileEmailMissing = errors.New("provider profile has no email")
	// ErrProfileSubjectMissing means the provider returned no subject id.
	ErrProfileSubjectMissing = errors.New("provider profile has no subject")
	// ErrProviderForbidden means the provider refused the requested scopes.
	ErrProviderForbidden = errors.New("provider denied access")
	// ErrProviderUnauthorized means the provider rejected the access token.
	ErrProviderUnauthorized = errors.New("provider rejected access token")
)
