package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPredefinedErrors tests that all predefined errors are defined.
func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrSiteNotFound", ErrSiteNotFound, "site not found"},
		{"ErrProductNotFound", ErrProductNotFound, "product not found"},
		{"ErrPostNotFound", ErrPostNotFound, "post not found"},
		{"ErrHostnameTaken", ErrHostnameTaken, "hostname already taken"},
		{"ErrSlugTaken", ErrSlugTaken, "slug already taken"},
		{"ErrDomainInactive", ErrDomainInactive, "domain is not active"},
		{"ErrInvalidAPIKey", ErrInvalidAPIKey, "invalid or inactive api key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

// TestPredefinedErrorsWithErrorsIs tests using errors.Is with predefined errors.
func TestPredefinedErrorsWithErrorsIs(t *testing.T) {
	wrappedErr := fmt.Errorf("context: %w", ErrSiteNotFound)

	assert.True(t, errors.Is(wrappedErr, ErrSiteNotFound))
	assert.False(t, errors.Is(wrappedErr, ErrProductNotFound))
}

// TestAppError_Error tests AppError.Error() method.
func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    "SITE_001",
				Message: "lookup failed",
				Err:     errors.New("connection reset"),
			},
			expected: "SITE_001: lookup failed: connection reset",
		},
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    "INVALID_HOST",
				Message: "invalid host",
			},
			expected: "INVALID_HOST: invalid host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

// TestAppError_Unwrap tests that AppError participates in errors.Is chains.
func TestAppError_Unwrap(t *testing.T) {
	appErr := NewAppError("NOT_FOUND", "site lookup", ErrSiteNotFound)

	assert.True(t, errors.Is(appErr, ErrSiteNotFound))
	assert.Equal(t, ErrSiteNotFound, appErr.Unwrap())
}

// TestWrap tests Wrap helper.
func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))

	err := Wrap(ErrSlugTaken, "create product")
	assert.EqualError(t, err, "create product: slug already taken")
	assert.True(t, errors.Is(err, ErrSlugTaken))
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(Wrap(ErrProductNotFound, "detail")))
	assert.True(t, IsNotFound(ErrSiteNotFound))
	assert.False(t, IsNotFound(ErrSlugTaken))

	assert.True(t, IsConflict(Wrap(ErrHostnameTaken, "create site")))
	assert.True(t, IsConflict(ErrSlugTaken))
	assert.False(t, IsConflict(ErrPostNotFound))
}
