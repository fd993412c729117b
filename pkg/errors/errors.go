package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrUserNotFound     = errors.New("user not found")
	ErrSiteNotFound     = errors.New("site not found")
	ErrDomainNotFound   = errors.New("domain not found")
	ErrDomainInactive   = errors.New("domain is not active")
	ErrDomainTaken      = errors.New("domain already registered")
	ErrHostnameTaken    = errors.New("hostname already taken")
	ErrInvalidSubdomain = errors.New("invalid subdomain format")
	ErrProductNotFound  = errors.New("product not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrModuleNotFound   = errors.New("module not found")
	ErrSlugTaken        = errors.New("slug already taken")
	ErrInvalidSlug      = errors.New("invalid slug")
	ErrInvalidAPIKey    = errors.New("invalid or inactive api key")
	ErrInvalidContent   = errors.New("invalid content document")
	ErrUnsupportedInput = errors.New("unsupported import input")
	ErrRateLimited      = errors.New("rate limited")
)

// AppError represents an application error with context
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound reports whether err is one of the scoped not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSiteNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrPostNotFound) ||
		errors.Is(err, ErrDomainNotFound) ||
		errors.Is(err, ErrModuleNotFound)
}

// IsConflict reports whether err is a uniqueness violation detected at write time.
func IsConflict(err error) bool {
	return errors.Is(err, ErrHostnameTaken) ||
		errors.Is(err, ErrSlugTaken) ||
		errors.Is(err, ErrDomainTaken)
}
