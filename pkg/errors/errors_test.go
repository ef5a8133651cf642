package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	err := AuthRequired("you must be logged in to submit a review")
	assert.Equal(t, "AUTH_REQUIRED: you must be logged in to submit a review: authentication required", err.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	err := ValidationFailed("comment must be at least 10 characters")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestFetchFailed_WrapsBothSentinelAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := FetchFailed(cause)

	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
}

func TestProvider_MessagePassesThroughVerbatim(t *testing.T) {
	err := Provider(http.StatusBadRequest, "EMAIL_EXISTS: The email address is already in use by another account.")
	assert.Equal(t, "EMAIL_EXISTS: The email address is already in use by another account.", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestProvider_DefaultsToBadGateway(t *testing.T) {
	err := Provider(0, "upstream unreachable")
	assert.Equal(t, http.StatusBadGateway, err.Status)
}

func TestHTTPStatus_AppError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("app not found")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(AuthRequired("no session")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ValidationFailed("bad field")))
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("list reviews: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("submit: %w", ErrAuthRequired), http.StatusUnauthorized},
		{fmt.Errorf("submit: %w", ErrValidationFailed), http.StatusBadRequest},
		{fmt.Errorf("load: %w", ErrFetchFailed), http.StatusServiceUnavailable},
		{fmt.Errorf("login: %w", ErrProvider), http.StatusBadGateway},
		{errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestWrap(t *testing.T) {
	base := ErrNotFound
	wrapped := Wrap(base, "get app")
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, "get app: resource not found", wrapped.Error())
}
