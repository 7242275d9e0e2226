package model

import "time"

const (
	// OTPLifetime is how long a registration passcode stays valid.
	OTPLifetime = 5 * time.Minute
	// OTPMaxAttempts is the number of wrong codes tolerated per challenge.
	OTPMaxAttempts = 3
	// PurposeRegistration tags challenges created by the sign-up form.
	PurposeRegistration = "registration"
)

// Challenge is a pending OTP verification keyed by email.
type Challenge struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Purpose   string    `json:"purpose"`
	Name      string    `json:"name"`
	Attempts  int       `json:"attempts"`
}

// Expiry implements Expirable.
func (c Challenge) Expiry() time.Time { return c.ExpiresAt }

// ChallengeStore is the OTP ledger.
type ChallengeStore = ExpiringStore[Challenge]
