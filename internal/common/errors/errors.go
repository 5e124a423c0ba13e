package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a failure by who caused it. It is serialized
// verbatim in error response bodies.
type ErrorType string

const (
	ClientError  ErrorType = "ClientError"
	ServerError  ErrorType = "ServerError"
	UnknownError ErrorType = "UnknownError"
)

// AppError is the structured failure value exchanged between services and
// handlers. Every domain failure crossing a package boundary is one of
// these, never a bare string.
type AppError struct {
	Type    ErrorType `json:"type"`
	Name    string    `json:"name"`
	Message string    `json:"message"`

	status int
	cause  error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *AppError) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func (e *AppError) WithCause(cause error) *AppError {
	return &AppError{
		Type:    e.Type,
		Name:    e.Name,
		Message: e.Message,
		status:  e.status,
		cause:   cause,
	}
}

// Client builds a 4xx failure caused by the request itself.
func Client(name string, status int, format string, args ...any) *AppError {
	return &AppError{
		Type:    ClientError,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
		status:  status,
	}
}

// Server builds a 5xx failure caused by storage or infrastructure.
func Server(name string, format string, args ...any) *AppError {
	return &AppError{
		Type:    ServerError,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
		status:  http.StatusInternalServerError,
	}
}

func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
