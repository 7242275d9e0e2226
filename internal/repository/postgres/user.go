package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, name, email, password_hash, google_id, linkedin_id, verified,
			  reset_token_hash, reset_expires_at, created_at, updated_at`

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.GoogleID, &user.LinkedInID, &user.Verified,
		&user.ResetTokenHash, &user.ResetExpiresAt, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + `
			  FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + `
			  FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, name, email, password_hash, google_id, linkedin_id, verified, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.GoogleID, user.LinkedInID, user.Verified,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrAlreadyExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) LinkProvider(ctx context.Context, id uuid.UUID, provider model.Provider, subjectID string) (model.User, error) {
	var query string
	switch provider {
	case model.ProviderGoogle:
		query = `UPDATE users SET google_id = $2, updated_at = NOW()
			  WHERE id = $1 AND google_id IS NULL
			  RETURNING ` + userColumns
	case model.ProviderLinkedIn:
		query = `UPDATE users SET linkedin_id = $2, updated_at = NOW()
			  WHERE id = $1 AND linkedin_id IS NULL
			  RETURNING ` + userColumns
	default:
		return model.User{}, fmt.Errorf("unknown provider %q", provider)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, subjectID))
	if err == nil {
		return user, nil
	}
	if isUniqueViolation(err) {
		return model.User{}, model.ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("failed to link provider: %w", err)
	}

	// Already linked, or the user does not exist.
	return r.GetByID(ctx, id)
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash []byte, expiresAt time.Time) error {
	query := `UPDATE users SET reset_token_hash = $2, reset_expires_at = $3, updated_at = NOW()
			  WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return expectAffected(res)
}

func (r *UserRepository) ResetPassword(ctx context.Context, id uuid.UUID, tokenHash []byte, passwordHash string) error {
	query := `UPDATE users SET password_hash = $3, reset_token_hash = NULL, reset_expires_at = NULL, updated_at = NOW()
			  WHERE id = $1 AND reset_token_hash = $2`

	res, err := r.db.ExecContext(ctx, query, id, tokenHash, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
