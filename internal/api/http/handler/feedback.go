package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

// FeedbackService defines survey submission and listing.
type FeedbackService interface {
	Submit(ctx context.Context, userID uuid.UUID, answers []model.Answer) (model.Feedback, error)
	List(ctx context.Context, rawUserID string) ([]model.Feedback, error)
}

// Feedback handles the /feedback endpoints.
type Feedback struct {
	feedbackService FeedbackService
	contextManager  model.ContextManager
	logger          *logger.Logger
}

// NewFeedback creates a new Feedback handler.
func NewFeedback(feedbackService FeedbackService, contextManager model.ContextManager, logger *logger.Logger) *Feedback {
	return &Feedback{
		feedbackService: feedbackService,
		contextManager:  contextManager,
		logger:          logger,
	}
}

type submitRequest struct {
	Answers []model.Answer `json:"answers"`
}

// Submit stores answers for the authenticated user.
func (h *Feedback) Submit(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, messageResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req submitRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	fb, err := h.feedbackService.Submit(c.Request.Context(), userID, req.Answers)
	if err != nil {
		h.logger.Warn("Feedback handler: submit failed", "user_id", userID, "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, feedbackCreatedResponse{
		Success: true,
		Message: "Feedback submitted successfully!",
		ID:      fb.ID.String(),
		At:      fb.SubmittedAt,
	})
}

// List returns every submission of the user named in the path.
func (h *Feedback) List(c *gin.Context) {
	items, err := h.feedbackService.List(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handleError(c, err)
		return
	}
	if items == nil {
		items = []model.Feedback{}
	}
	c.JSON(http.StatusOK, items)
}
