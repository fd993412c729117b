package utils

import (
	"net"
	"strings"
)

// NormalizeHost lowercases a request host and drops any port suffix.
// Bracketed IPv6 literals keep their address without brackets.
// When stripWWW is set a single leading "www." label is removed.
func NormalizeHost(host string, stripWWW bool) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}

	host = strings.TrimSuffix(host, ".")

	if stripWWW {
		host = strings.TrimPrefix(host, "www.")
	}

	return host
}

// JoinHost builds the full hostname of a site from its subdomain and root domain.
func JoinHost(subdomain, domain string) string {
	return NormalizeSubdomain(subdomain) + "." + strings.ToLower(strings.TrimSpace(domain))
}

// IsValidDomain reports whether s looks like a root domain ("example.com").
func IsValidDomain(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 || len(s) > 253 || !strings.Contains(s, ".") {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > MaxSubdomainLength || !subdomainRegex.MatchString(label) {
			return false
		}
	}
	return true
}
