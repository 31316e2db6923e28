// Package apierror defines client facing errors returned by services and
// rendered by the HTTP layer.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of client facing failure.
type Code string

const (
	CodeEmailTaken         Code = "email_taken"
	CodeInvalidInput       Code = "invalid_input"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeTooManyRequests    Code = "too_many_requests"
	CodeInternal           Code = "internal"
)

// APIError is an error with a message that is safe to show to clients.
type APIError struct {
	Code       Code
	HTTPStatus int
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// HasCode reports whether err is an APIError with the given code.
func HasCode(err error, code Code) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// From returns the APIError in err's chain, or an internal error wrapping err.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewErrInternalServerError(err)
}

func NewErrEmailIsTaken(email string) *APIError {
	return &APIError{
		Code:       CodeEmailTaken,
		HTTPStatus: http.StatusBadRequest,
		Message:    "Email already registered.",
		cause:      fmt.Errorf("email %s is already taken", email),
	}
}

func NewErrInvalidInput(reason string) *APIError {
	return &APIError{Code: CodeInvalidInput, HTTPStatus: http.StatusBadRequest, Message: reason}
}

func NewErrAdminRegistration() *APIError {
	return &APIError{Code: CodeForbidden, HTTPStatus: http.StatusForbidden, Message: "Admin cannot register publicly."}
}

func NewErrUserNotFound(id string) *APIError {
	return &APIError{
		Code:       CodeNotFound,
		HTTPStatus: http.StatusNotFound,
		Message:    "User not found.",
		cause:      fmt.Errorf("user %s not found", id),
	}
}

func NewErrEvidenceNotFound() *APIError {
	return &APIError{Code: CodeNotFound, HTTPStatus: http.StatusNotFound, Message: "No ID card on file."}
}

func NewErrInvalidCredentials() *APIError {
	return &APIError{Code: CodeInvalidCredentials, HTTPStatus: http.StatusBadRequest, Message: "Invalid credentials."}
}

func NewErrMissingAuthorizationToken() *APIError {
	return &APIError{Code: CodeUnauthenticated, HTTPStatus: http.StatusUnauthorized, Message: "Authentication required."}
}

func NewErrInvalidAuthorizationToken() *APIError {
	return &APIError{Code: CodeUnauthenticated, HTTPStatus: http.StatusUnauthorized, Message: "Authentication failed."}
}

func NewErrForbidden() *APIError {
	return &APIError{Code: CodeForbidden, HTTPStatus: http.StatusForbidden, Message: "Forbidden. Access denied."}
}

func NewErrTooManyRequests() *APIError {
	return &APIError{Code: CodeTooManyRequests, HTTPStatus: http.StatusTooManyRequests, Message: "Too many requests. Try again later."}
}

func NewErrInternalServerError(err error) *APIError {
	return &APIError{Code: CodeInternal, HTTPStatus: http.StatusInternalServerError, Message: "Server error. Try again.", cause: err}
}
