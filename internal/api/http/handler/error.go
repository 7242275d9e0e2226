package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/apperror"
)

const serverErrorMessage = "Server error"

var errInvalidBody = apperror.NewErrValidation("Invalid request body")

// handleError writes err as a JSON failure. Anticipated failures keep their
// status and message; anything else is reported as a generic 500.
func handleError(c *gin.Context, err error) {
	if apiErr, ok := apperror.As(err); ok {
		c.JSON(apiErr.Status, messageResponse{Success: false, Message: apiErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, messageResponse{Success: false, Message: serverErrorMessage})
}

// bindJSON decodes the request body into dst. An empty body leaves dst
// zeroed so services can report their own missing-field errors.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody.Wrap(err)
	}
	return nil
}
