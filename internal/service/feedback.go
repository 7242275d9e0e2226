package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

var (
	errAnswersRequired = apperror.NewErrValidation("Missing userId or answers")
	errInvalidUserID   = apperror.NewErrValidation("Invalid user id")
	errOwnerNotFound   = apperror.NewErrNotFound("User not found")
)

// Feedback stores survey submissions and optionally archives them to
// object storage.
type Feedback struct {
	feedbackStore model.FeedbackStore
	userStore     model.UserStore
	archive       model.Storage
	logger        *logger.Logger
}

// NewFeedback creates a Feedback service. archive may be nil.
func NewFeedback(feedbackStore model.FeedbackStore, userStore model.UserStore, archive model.Storage, logger *logger.Logger) *Feedback {
	return &Feedback{
		feedbackStore: feedbackStore,
		userStore:     userStore,
		archive:       archive,
		logger:        logger,
	}
}

// Submit stores answers owned by userID.
func (f *Feedback) Submit(ctx context.Context, userID uuid.UUID, answers []model.Answer) (model.Feedback, error) {
	cleaned := make([]model.Answer, 0, len(answers))
	for _, a := range answers {
		if strings.TrimSpace(a.Question) == "" {
			continue
		}
		cleaned = append(cleaned, a)
	}
	if len(cleaned) == 0 {
		return model.Feedback{}, errAnswersRequired
	}

	created, err := f.feedbackStore.Create(ctx, model.Feedback{
		ID:          uuid.New(),
		UserID:      userID,
		Answers:     cleaned,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		f.logger.Error("Feedback service: failed to store feedback",
			"user_id", userID,
			"error", err.Error())
		return model.Feedback{}, fmt.Errorf("failed to create feedback: %w", err)
	}

	f.logger.Info("Feedback service: feedback submitted",
		"user_id", userID,
		"feedback_id", created.ID,
		"answers", len(created.Answers))

	if f.archive != nil {
		if err := f.archiveFeedback(ctx, created); err != nil {
			f.logger.Warn("Feedback service: failed to archive feedback",
				"feedback_id", created.ID,
				"error", err.Error())
		}
	}

	return created, nil
}

// List returns the submissions of the user identified by rawUserID.
func (f *Feedback) List(ctx context.Context, rawUserID string) ([]model.Feedback, error) {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, errInvalidUserID
	}

	if _, err := f.userStore.GetByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errOwnerNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	items, err := f.feedbackStore.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	if items == nil {
		items = []model.Feedback{}
	}
	return items, nil
}

// ArchiveKey is the object key of an archived submission.
func ArchiveKey(fb model.Feedback) string {
	return fmt.Sprintf("feedback/%s/%s.json", fb.UserID, fb.ID)
}

func (f *Feedback) archiveFeedback(ctx context.Context, fb model.Feedback) error {
	data, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}
	return f.archive.Upload(ctx, ArchiveKey(fb), bytes.NewReader(data), int64(len(data)), "application/json")
}
