package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/testutil"
	"github.com/dtroode/feedback-server/internal/token"
)

// fakeUserStore is an in-memory model.UserStore enforcing the same unique
// constraints as the users table.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]model.User
	writes int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]model.User)}
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Create(_ context.Context, user model.User) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return model.User{}, model.ErrAlreadyExists
		}
	}
	f.users[user.ID] = user
	f.writes++
	return user, nil
}

func (f *fakeUserStore) LinkProvider(_ context.Context, id uuid.UUID, provider model.Provider, subjectID string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	if u.SubjectID(provider) != "" {
		return u, nil
	}
	switch provider {
	case model.ProviderGoogle:
		u.GoogleID = &subjectID
	case model.ProviderLinkedIn:
		u.LinkedInID = &subjectID
	}
	f.users[id] = u
	f.writes++
	return u, nil
}

func (f *fakeUserStore) SetResetToken(_ context.Context, id uuid.UUID, tokenHash []byte, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.ResetTokenHash = tokenHash
	u.ResetExpiresAt = &expiresAt
	f.users[id] = u
	f.writes++
	return nil
}

func (f *fakeUserStore) ResetPassword(_ context.Context, id uuid.UUID, tokenHash []byte, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || !equalBytes(u.ResetTokenHash, tokenHash) {
		return model.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	u.ResetTokenHash = nil
	u.ResetExpiresAt = nil
	f.users[id] = u
	f.writes++
	return nil
}

func (f *fakeUserStore) put(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// fakeRefreshStore is an in-memory model.RefreshTokenStore.
type fakeRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{tokens: make(map[string]model.RefreshToken)}
}

func (f *fakeRefreshStore) Create(_ context.Context, t model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.JTI] = t
	return nil
}

func (f *fakeRefreshStore) GetByJTI(_ context.Context, jti string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[jti]
	if !ok {
		return model.RefreshToken{}, model.ErrNotFound
	}
	return t, nil
}

func (f *fakeRefreshStore) RevokeByJTI(_ context.Context, jti string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[jti]
	if !ok || t.RevokedAt != nil {
		return model.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	f.tokens[jti] = t
	return nil
}

func (f *fakeRefreshStore) RevokeAllByUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for jti, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			f.tokens[jti] = t
		}
	}
	return nil
}

func (f *fakeRefreshStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for jti, t := range f.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(f.tokens, jti)
			n++
		}
	}
	return n, nil
}

// fakeMailer records deliveries and optionally fails them.
type fakeMailer struct {
	mu     sync.Mutex
	err    error
	codes  map[string]string
	resets map[string]string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: make(map[string]string), resets: make(map[string]string)}
}

func (f *fakeMailer) SendOTP(_ context.Context, to, _, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[to] = code
	return f.err
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[to] = link
	return f.err
}

func (f *fakeMailer) lastCode(to string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[to]
}

func (f *fakeMailer) lastReset(to string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets[to]
}

var testHasher = NewPasswordHasher(bcrypt.MinCost)

func newTestJWT(t *testing.T) *token.JWT {
	t.Helper()
	j, err := token.NewJWT(token.Options{
		KeyID:      "test",
		Secret:     "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	return j
}

func newTestTokenService(t *testing.T) (*TokenService, *token.JWT) {
	t.Helper()
	j := newTestJWT(t)
	return NewTokenService(j, newFakeRefreshStore(), j.RefreshTTL(), testutil.MakeNoopLogger()), j
}

var testifyAnyUser = mock.AnythingOfType("model.User")
