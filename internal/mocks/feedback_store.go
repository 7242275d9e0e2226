package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/feedback-server/internal/model"
)

// FeedbackStore is a mock of model.FeedbackStore.
type FeedbackStore struct {
	mock.Mock
}

func NewFeedbackStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *FeedbackStore {
	m := &FeedbackStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *FeedbackStore) Create(ctx context.Context, feedback model.Feedback) (model.Feedback, error) {
	args := m.Called(ctx, feedback)
	if fn, ok := args.Get(0).(func(context.Context, model.Feedback) model.Feedback); ok {
		return fn(ctx, feedback), args.Error(1)
	}
	return args.Get(0).(model.Feedback), args.Error(1)
}

func (m *FeedbackStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Feedback, error) {
	args := m.Called(ctx, userID)
	feedback, _ := args.Get(0).([]model.Feedback)
	return feedback, args.Error(1)
}
