package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/model"
)

var _ model.FeedbackStore = (*FeedbackRepository)(nil)

type FeedbackRepository struct {
	db *Connection
}

func NewFeedbackRepository(db *Connection) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback model.Feedback) (model.Feedback, error) {
	const query = `
        INSERT INTO feedback (id, user_id, answers, submitted_at)
        VALUES ($1, $2, $3, $4)
        RETURNING submitted_at
    `

	answers, err := json.Marshal(feedback.Answers)
	if err != nil {
		return model.Feedback{}, fmt.Errorf("failed to marshal answers: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query,
		feedback.ID, feedback.UserID, string(answers), feedback.SubmittedAt,
	).Scan(&feedback.SubmittedAt); err != nil {
		return model.Feedback{}, fmt.Errorf("failed to create feedback: %w", err)
	}

	return feedback, nil
}

func (r *FeedbackRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Feedback, error) {
	const query = `
        SELECT id, user_id, answers, submitted_at
        FROM feedback WHERE user_id = $1
        ORDER BY submitted_at
    `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var items []model.Feedback
	for rows.Next() {
		var (
			fb      model.Feedback
			answers []byte
		)
		if err := rows.Scan(&fb.ID, &fb.UserID, &answers, &fb.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		if err := json.Unmarshal(answers, &fb.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers: %w", err)
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	return items, nil
}
