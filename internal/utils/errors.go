package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ErrorKind string

const (
	KindConflict          ErrorKind = "CONFLICT"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidState      ErrorKind = "INVALID_STATE"
	KindInvalidCredential ErrorKind = "INVALID_CREDENTIAL"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindInternal          ErrorKind = "INTERNAL_ERROR"
)

// AppError is a caller-facing failure. Message is safe to show to clients;
// Err keeps the underlying cause for logs.
type AppError struct {
	Kind    ErrorKind
	Message string
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewInvalidStateError(message string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: message}
}

func NewInvalidCredentialError(message string) *AppError {
	return &AppError{Kind: KindInvalidCredential, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewValidationError(message string, details map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Details: details}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// ValidationErrorFrom converts a validator failure into a VALIDATION_ERROR.
func ValidationErrorFrom(err error) *AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(ErrValidationFailed, FormatValidationErrors(verrs))
	}
	return NewValidationError(err.Error(), nil)
}

// KindOf reports the kind of err. Errors that are not an AppError are internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindInvalidCredential, KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as an API error response. Internal failures never
// leak their cause to the client.
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		_ = c.Error(err)
		InternalServerErrorResponse(c)
		return
	}

	if len(appErr.Details) > 0 {
		ErrorResponseWithDetails(c, HTTPStatus(appErr.Kind), string(appErr.Kind), appErr.Message, appErr.Details)
		return
	}
	ErrorResponse(c, HTTPStatus(appErr.Kind), string(appErr.Kind), appErr.Message)
}
