package utils

import (
	"regexp"
	"strings"
)

const (
	// MinSubdomainLength is the minimum allowed subdomain length
	MinSubdomainLength = 2
	// MaxSubdomainLength is the maximum allowed subdomain length
	MaxSubdomainLength = 63
)

var (
	// subdomainRegex validates subdomain format
	subdomainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

	// Reserved subdomains that cannot be claimed by a site
	reservedSubdomains = map[string]bool{
		"www":       true,
		"api":       true,
		"admin":     true,
		"dashboard": true,
		"app":       true,
		"mail":      true,
		"smtp":      true,
		"ftp":       true,
		"localhost": true,
		"static":    true,
		"cdn":       true,
		"site":      true,
	}
)

// IsValidSubdomain checks if a subdomain can be claimed by a site
func IsValidSubdomain(subdomain string) bool {
	subdomain = strings.ToLower(subdomain)

	if len(subdomain) < MinSubdomainLength || len(subdomain) > MaxSubdomainLength {
		return false
	}

	// lowercase alphanumeric and hyphens, no leading/trailing hyphens
	if !subdomainRegex.MatchString(subdomain) {
		return false
	}

	return !reservedSubdomains[subdomain]
}

// IsReservedSubdomain checks if a subdomain is reserved
func IsReservedSubdomain(subdomain string) bool {
	return reservedSubdomains[strings.ToLower(subdomain)]
}

// NormalizeSubdomain normalizes a subdomain (lowercase, trim)
func NormalizeSubdomain(subdomain string) string {
	return strings.ToLower(strings.TrimSpace(subdomain))
}
