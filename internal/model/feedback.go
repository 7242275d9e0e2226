package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FeedbackStore defines persistence operations for survey submissions.
type FeedbackStore interface {
	Create(ctx context.Context, feedback Feedback) (Feedback, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Feedback, error)
}

// Answer is one answered survey question.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Feedback is a single survey submission.
type Feedback struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}
