package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateError reports whether err is a unique constraint violation.
// Drivers that do not translate errors are matched on their message.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	for _, pattern := range []string{
		"duplicate key",            // postgres 23505
		"UNIQUE constraint failed", // sqlite
		"unique constraint",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
