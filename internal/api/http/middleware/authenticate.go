package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/apperror"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

const currentUserKey = "current_user"

// Authenticator resolves an access token to an existing user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.User, error)
}

// Authenticate validates bearer tokens and injects the user into the request.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// Handle rejects requests without a valid "Authorization: Bearer <token>"
// header. On success the user ID is stored via the context manager and the
// user record is available through CurrentUser.
func (m *Authenticate) Handle(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		abort(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := m.authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		if apiErr, ok := apperror.As(err); ok {
			m.logger.Debug("Authenticate middleware: rejected token", "path", c.FullPath(), "error", err.Error())
			abort(c, apiErr.Status, apiErr.Message)
			return
		}
		m.logger.Error("Authenticate middleware: failed to authenticate", "error", err.Error())
		abort(c, http.StatusInternalServerError, "Server error")
		return
	}

	c.Request = c.Request.WithContext(m.contextManager.SetUserIDToContext(c.Request.Context(), user.ID))
	c.Set(currentUserKey, user)
	c.Next()
}

// CurrentUser returns the user stored by Authenticate.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}
