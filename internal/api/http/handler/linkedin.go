package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
)

const (
	stateCookie       = "linkedin_oauth_state"
	stateCookiePath   = "/api/linkedin"
	stateCookieMaxAge = 600
)

// LinkedInService runs the LinkedIn authorization code flow.
type LinkedInService interface {
	AuthorizationURL(state string) string
	Complete(ctx context.Context, code string) (string, error)
}

// LinkedIn handles the browser redirects of the LinkedIn login.
type LinkedIn struct {
	linkedInService LinkedInService
	frontendURL     string
	logger          *logger.Logger
}

// NewLinkedIn creates a new LinkedIn handler redirecting back to frontendURL.
func NewLinkedIn(linkedInService LinkedInService, frontendURL string, logger *logger.Logger) *LinkedIn {
	return &LinkedIn{
		linkedInService: linkedInService,
		frontendURL:     strings.TrimRight(frontendURL, "/"),
		logger:          logger,
	}
}

// Login redirects the browser to the LinkedIn consent page.
func (h *LinkedIn) Login(c *gin.Context) {
	state, err := newState()
	if err != nil {
		h.logger.Error("LinkedIn handler: failed to generate state", "error", err.Error())
		handleError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, stateCookieMaxAge, stateCookiePath, "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.linkedInService.AuthorizationURL(state))
}

// Callback completes the login and redirects to the frontend with either a
// login exchange code or an error marker.
func (h *LinkedIn) Callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Warn("LinkedIn handler: provider returned error",
			"error", providerErr,
			"description", c.Query("error_description"))
		h.redirectError(c, "linkedin_"+providerErr)
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "authorization_code_missing")
		return
	}

	if expected, err := c.Cookie(stateCookie); err == nil {
		c.SetCookie(stateCookie, "", -1, stateCookiePath, "", c.Request.TLS != nil, true)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(c.Query("state"))) != 1 {
			h.redirectError(c, "linkedin_invalid_state")
			return
		}
	}

	exchangeCode, err := h.linkedInService.Complete(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("LinkedIn handler: login failed", "error", err.Error())
		h.redirectError(c, callbackMarker(err))
		return
	}

	h.redirect(c, "/feedback", url.Values{
		"code":           {exchangeCode},
		"replaceHistory": {"true"},
	})
}

func callbackMarker(err error) string {
	switch {
	case errors.Is(err, model.ErrProfileEmailMissing):
		return "email_not_found"
	case errors.Is(err, model.ErrProviderForbidden):
		return "linkedin_insufficient_permissions"
	case errors.Is(err, model.ErrProviderUnauthorized):
		return "linkedin_invalid_token"
	default:
		return "linkedin_authentication_failed"
	}
}

func (h *LinkedIn) redirectError(c *gin.Context, marker string) {
	h.redirect(c, "/signin", url.Values{"error": {marker}})
}

func (h *LinkedIn) redirect(c *gin.Context, path string, q url.Values) {
	c.Redirect(http.StatusFound, h.frontendURL+path+"?"+q.Encode())
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
