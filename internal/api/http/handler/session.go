package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/service"
)

var errRefreshRequired = apperror.NewErrValidation("Refresh token is required")

// TokenService defines refresh token rotation and revocation.
type TokenService interface {
	Refresh(ctx context.Context, refreshToken string) (model.Session, error)
	RevokeByToken(ctx context.Context, refreshToken string) error
}

// ExchangeService redeems one-time login exchange codes.
type ExchangeService interface {
	Redeem(ctx context.Context, code string) (service.LoginResult, error)
}

// Session handles token refresh, logout and exchange code redemption.
type Session struct {
	tokenService    TokenService
	exchangeService ExchangeService
	logger          *logger.Logger
}

// NewSession creates a new Session handler.
func NewSession(tokenService TokenService, exchangeService ExchangeService, logger *logger.Logger) *Session {
	return &Session{
		tokenService:    tokenService,
		exchangeService: exchangeService,
		logger:          logger,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the presented refresh token.
func (h *Session) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}
	if req.RefreshToken == "" {
		handleError(c, errRefreshRequired)
		return
	}

	session, err := h.tokenService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warn("Session handler: refresh failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{Token: session.AccessToken, RefreshToken: session.RefreshToken})
}

// Logout revokes the presented refresh token.
func (h *Session) Logout(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}
	if req.RefreshToken == "" {
		handleError(c, errRefreshRequired)
		return
	}

	if err := h.tokenService.RevokeByToken(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Warn("Session handler: logout failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type exchangeRequest struct {
	Code string `json:"code"`
}

// Exchange trades a login exchange code for a session.
func (h *Session) Exchange(c *gin.Context) {
	var req exchangeRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	res, err := h.exchangeService.Redeem(c.Request.Context(), req.Code)
	if err != nil {
		h.logger.Warn("Session handler: exchange failed", "error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newLoginResponse("", res))
}
