// Package google reads the profile out of a Google Identity Services
// credential.
package google

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/feedback-server/internal/model"
)

var _ model.GoogleDecoder = (*Decoder)(nil)

var (
	ErrMalformed       = errors.New("malformed google credential")
	ErrAudienceInvalid = errors.New("google credential issued for another client")
)

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Decoder decodes the credential payload without verifying the signature.
// When a client ID is configured the audience must contain it.
type Decoder struct {
	clientID string
	parser   *jwt.Parser
}

func NewDecoder(clientID string) *Decoder {
	return &Decoder{
		clientID: clientID,
		parser:   jwt.NewParser(),
	}
}

func (d *Decoder) Decode(credential string) (model.ProviderProfile, error) {
	var c claims
	if _, _, err := d.parser.ParseUnverified(credential, &c); err != nil {
		return model.ProviderProfile{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if d.clientID != "" && !slices.Contains(c.Audience, d.clientID) {
		return model.ProviderProfile{}, ErrAudienceInvalid
	}

	return model.ProviderProfile{
		Email:     c.Email,
		SubjectID: c.Subject,
		Name:      c.Name,
	}, nil
}
