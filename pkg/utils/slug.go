package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// IsValidSlug checks if s is usable as a URL path segment
func IsValidSlug(s string) bool {
	return len(s) <= 200 && slugRegex.MatchString(s)
}

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen. Non-ASCII letters are dropped.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}
