package model

import "context"

// Mailer delivers transactional email.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string) error
	SendPasswordReset(ctx context.Context, to, link string) error
}
