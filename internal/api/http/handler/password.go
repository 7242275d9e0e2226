package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/service"
)

// ResetService defines the password reset flow.
type ResetService interface {
	Initiate(ctx context.Context, email string) (service.ResetResult, error)
	Complete(ctx context.Context, userID, token, password string) (string, error)
}

// Password handles the forgot/reset password endpoints.
type Password struct {
	resetService ResetService
	logger       *logger.Logger
}

// NewPassword creates a new Password handler.
func NewPassword(resetService ResetService, logger *logger.Logger) *Password {
	return &Password{resetService: resetService, logger: logger}
}

type forgotRequest struct {
	Email string `json:"email"`
}

// Forgot emails a reset link. Unknown emails are reported with
// success=false and status 200.
func (h *Password) Forgot(c *gin.Context) {
	var req forgotRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	res, err := h.resetService.Initiate(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("Password handler: reset initiation failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: res.Sent, Message: res.Message})
}

type resetRequest struct {
	Password string `json:"password"`
	Token    string `json:"token"`
	UserID   string `json:"userId"`
}

// Reset sets a new password. A rejected link is answered with 200 and
// success=false like the other reset outcomes.
func (h *Password) Reset(c *gin.Context) {
	var req resetRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	msg, err := h.resetService.Complete(c.Request.Context(), req.UserID, req.Token, req.Password)
	if err != nil {
		if apiErr, ok := apperror.As(err); ok && apiErr.Kind == apperror.KindAuthentication {
			h.logger.Info("Password handler: reset link rejected", "reason", apiErr.Message)
			c.JSON(http.StatusOK, messageResponse{Success: false, Message: apiErr.Message})
			return
		}
		h.logger.Warn("Password handler: reset failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: msg})
}
