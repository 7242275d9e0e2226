// Package apperror describes failures that are reported to API clients.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an anticipated failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindAuthentication
	KindNotFound
	KindUpstream
	KindUnavailable
)

// APIError is an anticipated failure carrying the HTTP status and the
// message shown to the client.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches another APIError of the same kind and message, so sentinel
// values can be compared with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// Wrap returns a copy of e that carries cause for logging.
func (e *APIError) Wrap(cause error) *APIError {
	c := *e
	c.Err = cause
	return &c
}

func NewErrValidation(message string) *APIError {
	return &APIError{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

func NewErrConflict(message string) *APIError {
	return &APIError{Kind: KindConflict, Status: http.StatusBadRequest, Message: message}
}

func NewErrAuthentication(message string) *APIError {
	return &APIError{Kind: KindAuthentication, Status: http.StatusUnauthorized, Message: message}
}

func NewErrNotFound(message string) *APIError {
	return &APIError{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

func NewErrUpstream(message string, cause error) *APIError {
	return &APIError{Kind: KindUpstream, Status: http.StatusBadGateway, Message: message, Err: cause}
}

func NewErrUnavailable(message string, cause error) *APIError {
	return &APIError{Kind: KindUnavailable, Status: http.StatusServiceUnavailable, Message: message, Err: cause}
}

// As extracts an APIError from err.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NewErrBadCredentials reports a failed credential check that the client
// expects as a 400 rather than a 401.
func NewErrBadCredentials(message string) *APIError {
	return &APIError{Kind: KindAuthentication, Status: http.StatusBadRequest, Message: message}
}
