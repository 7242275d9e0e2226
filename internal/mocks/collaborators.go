package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/feedback-server/internal/model"
)

// Mailer is a mock of model.Mailer.
type Mailer struct {
	mock.Mock
}

func NewMailer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Mailer {
	m := &Mailer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Mailer) SendOTP(ctx context.Context, to, name, code string) error {
	return m.Called(ctx, to, name, code).Error(0)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, link string) error {
	return m.Called(ctx, to, link).Error(0)
}

// Storage is a mock of model.Storage.
type Storage struct {
	mock.Mock
}

func NewStorage(t interface {
	mock.TestingT
	Cleanup(func())
}) *Storage {
	m := &Storage{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, reader, size, contentType).Error(0)
}

func (m *Storage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// GoogleDecoder is a mock of model.GoogleDecoder.
type GoogleDecoder struct {
	mock.Mock
}

func NewGoogleDecoder(t interface {
	mock.TestingT
	Cleanup(func())
}) *GoogleDecoder {
	m := &GoogleDecoder{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *GoogleDecoder) Decode(credential string) (model.ProviderProfile, error) {
	args := m.Called(credential)
	return args.Get(0).(model.ProviderProfile), args.Error(1)
}

// LinkedInClient is a mock of model.LinkedInClient.
type LinkedInClient struct {
	mock.Mock
}

func NewLinkedInClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *LinkedInClient {
	m := &LinkedInClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *LinkedInClient) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *LinkedInClient) Exchange(ctx context.Context, code string) (model.ProviderProfile, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.ProviderProfile), args.Error(1)
}
