package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/api/http/middleware"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/service"
)

// AuthService defines direct registration, password login and Google
// sign-in.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (model.User, error)
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
	Google(ctx context.Context, credential string) (service.LoginResult, error)
}

// Auth handles the /users and /auth/google endpoints.
type Auth struct {
	authService AuthService
	logger      *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, logger *logger.Logger) *Auth {
	return &Auth{
		authService: authService,
		logger:      logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a password account.
func (h *Auth) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.logFailure("registration", err)
		handleError(c, err)
		return
	}

	h.logger.Info("Auth handler: user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, messageResponse{Success: true, Message: "User registered successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("login", err)
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newLoginResponse("Login successful", res))
}

type googleRequest struct {
	Credential string `json:"credential"`
}

// Google signs in with a Google Identity Services credential.
func (h *Auth) Google(c *gin.Context) {
	var req googleRequest
	if err := bindJSON(c, &req); err != nil {
		handleError(c, err)
		return
	}

	res, err := h.authService.Google(c.Request.Context(), req.Credential)
	if err != nil {
		h.logFailure("google login", err)
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newLoginResponse("", res))
}

// Me returns the authenticated user.
func (h *Auth) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, messageResponse{Success: false, Message: "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, userResponse{User: user.Summary()})
}

func (h *Auth) logFailure(op string, err error) {
	h.logger.Warn("Auth handler: "+op+" failed", "error", err.Error())
}
