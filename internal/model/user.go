package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	// LinkProvider attaches a provider subject id only when none is recorded
	// for that provider. It returns the stored user in either case.
	LinkProvider(ctx context.Context, id uuid.UUID, provider Provider, subjectID string) (User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash []byte, expiresAt time.Time) error
	// ResetPassword replaces the password hash and clears the reset token, but
	// only while the stored token hash still equals tokenHash.
	ResetPassword(ctx context.Context, id uuid.UUID, tokenHash []byte, passwordHash string) error
}

// Provider enumerates external identity providers.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderLinkedIn Provider = "linkedin"
)

// Identity is a verified external identity handed over by an OAuth adapter.
type Identity struct {
	Provider  Provider
	SubjectID string
	Name      string
}

// User represents one account. Email is the join key across all
// authentication methods.
type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	PasswordHash   *string
	GoogleID       *string
	LinkedInID     *string
	Verified       bool
	ResetTokenHash []byte
	ResetExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SubjectID returns the recorded subject id for provider, or "".
func (u User) SubjectID(provider Provider) string {
	var id *string
	switch provider {
	case ProviderGoogle:
		id = u.GoogleID
	case ProviderLinkedIn:
		id = u.LinkedInID
	}
	if id == nil {
		return ""
	}
	return *id
}

// UserSummary is the public projection of a user returned to clients.
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Verified   bool      `json:"isVerified"`
	LinkedInID string    `json:"linkedinId,omitempty"`
}

// Summary projects u for API responses. It never carries secrets.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Verified:   u.Verified,
		LinkedInID: u.SubjectID(ProviderLinkedIn),
	}
}
