package router

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/model"
)

type userStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newUserStore() *userStore {
	return &userStore{users: make(map[uuid.UUID]model.User)}
}

func (s *userStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *userStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *userStore) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return model.User{}, model.ErrAlreadyExists
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *userStore) LinkProvider(_ context.Context, id uuid.UUID, provider model.Provider, subjectID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	if u.SubjectID(provider) == "" {
		switch provider {
		case model.ProviderGoogle:
			u.GoogleID = &subjectID
		case model.ProviderLinkedIn:
			u.LinkedInID = &subjectID
		}
		s.users[id] = u
	}
	return u, nil
}

func (s *userStore) SetResetToken(_ context.Context, id uuid.UUID, tokenHash []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.ResetTokenHash = tokenHash
	u.ResetExpiresAt = &expiresAt
	s.users[id] = u
	return nil
}

func (s *userStore) ResetPassword(_ context.Context, id uuid.UUID, tokenHash []byte, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !bytes.Equal(u.ResetTokenHash, tokenHash) {
		return model.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	u.ResetTokenHash = nil
	u.ResetExpiresAt = nil
	s.users[id] = u
	return nil
}

type refreshStore struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken
}

func newRefreshStore() *refreshStore {
	return &refreshStore{tokens: make(map[string]model.RefreshToken)}
}

func (s *refreshStore) Create(_ context.Context, t model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.JTI] = t
	return nil
}

func (s *refreshStore) GetByJTI(_ context.Context, jti string) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[jti]
	if !ok {
		return model.RefreshToken{}, model.ErrNotFound
	}
	return t, nil
}

func (s *refreshStore) RevokeByJTI(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[jti]
	if !ok || t.RevokedAt != nil {
		return model.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	s.tokens[jti] = t
	return nil
}

func (s *refreshStore) RevokeAllByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for jti, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.tokens[jti] = t
		}
	}
	return nil
}

func (s *refreshStore) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type feedbackStore struct {
	mu    sync.Mutex
	items []model.Feedback
}

func (s *feedbackStore) Create(_ context.Context, fb model.Feedback) (model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, fb)
	return fb, nil
}

func (s *feedbackStore) GetByUserID(_ context.Context, userID uuid.UUID) ([]model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Feedback
	for _, fb := range s.items {
		if fb.UserID == userID {
			out = append(out, fb)
		}
	}
	return out, nil
}

type mailbox struct {
	mu     sync.Mutex
	codes  map[string]string
	resets map[string]string
}

func newMailbox() *mailbox {
	return &mailbox{codes: make(map[string]string), resets: make(map[string]string)}
}

func (m *mailbox) SendOTP(_ context.Context, to, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *mailbox) SendPasswordReset(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[to] = link
	return nil
}

func (m *mailbox) resetLink(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[to]
}

type linkedInClient struct {
	profile model.ProviderProfile
}

func (c linkedInClient) AuthCodeURL(state string) string {
	return "https://www.linkedin.com/oauth/v2/authorization?state=" + state
}

func (c linkedInClient) Exchange(context.Context, string) (model.ProviderProfile, error) {
	return c.profile, nil
}

type pinger struct{}

func (pinger) Ping(context.Context) error { return nil }
