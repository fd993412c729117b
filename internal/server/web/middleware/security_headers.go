package middleware

import "net/http"

// AdminCSP is the content security policy of the admin API.
const AdminCSP = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' data:; " +
	"connect-src 'self'; " +
	"frame-ancestors 'none'; " +
	"base-uri 'self'; " +
	"form-action 'self'"

// SecurityHeaders adds security-related HTTP headers to admin responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return SecurityHeadersWithCSP(AdminCSP)(next)
}

// SiteSecurityHeaders is the header set of tenant pages. Tenant pages load
// analytics scripts, ad slots and video embeds chosen by the site owner, so
// no content security policy is sent and framing is allowed from the same
// origin only.
func SiteSecurityHeaders(next http.Handler) http.Handler {
	return SecurityHeadersWithCSP("")(next)
}

// SecurityHeadersWithCSP adds the common security headers plus csp when
// it is not empty.
func SecurityHeadersWithCSP(csp string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// Prevent MIME type sniffing
			h.Set("X-Content-Type-Options", "nosniff")

			if csp != "" {
				h.Set("X-Frame-Options", "DENY")
				h.Set("Content-Security-Policy", csp)
			} else {
				h.Set("X-Frame-Options", "SAMEORIGIN")
			}

			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Max-Age of 1 year, only over TLS
			if r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")

			next.ServeHTTP(w, r)
		})
	}
}
