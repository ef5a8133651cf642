package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAuthRequired     = errors.New("authentication required")
	ErrValidationFailed = errors.New("validation failed")
	ErrFetchFailed      = errors.New("catalog fetch failed")
	ErrProvider         = errors.New("identity provider error")
	ErrForbidden        = errors.New("forbidden")
	ErrInternal         = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: message,
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error for malformed requests.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// AuthRequired creates a 401 error for actions that need a session
// (review submission, votes, installs, profile access).
func AuthRequired(message string) *AppError {
	return &AppError{
		Code:    "AUTH_REQUIRED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthRequired,
	}
}

// ValidationFailed creates a 400 error for a field-level validation failure.
// One message is surfaced per attempt; callers pick the most specific
// applicable one, with the auth check winning over field checks.
func ValidationFailed(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrValidationFailed,
	}
}

// FetchFailed creates a 503 error for a failed catalog document retrieval.
// A nil cause still carries the sentinel, for the never-loaded case.
func FetchFailed(err error) *AppError {
	cause := error(ErrFetchFailed)
	if err != nil {
		cause = fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return &AppError{
		Code:    "FETCH_FAILED",
		Message: "catalog unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     cause,
	}
}

// Provider creates an error carrying an identity-provider failure. The
// provider's message is passed through verbatim; the status defaults to 502
// when the provider did not supply a usable one.
func Provider(status int, message string) *AppError {
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &AppError{
		Code:    "PROVIDER_ERROR",
		Message: message,
		Status:  status,
		Err:     ErrProvider,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrFetchFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
