package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/logger"
)

// Logging writes one access log record per request.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs method, path, status and duration for each request.
func (l *Logging) Handle(c *gin.Context) {
	start := time.Now()

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	status := c.Writer.Status()
	args := []any{
		"method", c.Request.Method,
		"path", path,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
		"client_ip", c.ClientIP(),
	}

	switch {
	case status >= 500:
		l.logger.Error("HTTP request failed", args...)
	case len(c.Errors) > 0:
		l.logger.Warn("HTTP request completed with errors", append(args, "errors", c.Errors.String())...)
	default:
		l.logger.Info("HTTP request completed", args...)
	}
}
