// Package hostrouter splits incoming requests between the admin
// application and tenant sites by hostname.
package hostrouter

import (
	"context"
	"net/http"
	"strings"

	"github.com/yangtinglin69/saas/pkg/logger"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// SitePrefix is the internal path prefix of tenant requests.
const SitePrefix = "/site/"

type contextKey struct{}

// Decision is the routing outcome for one host.
type Decision struct {
	Host  string // normalized host
	Admin bool
}

// Router classifies requests by host. It never touches the database.
type Router struct {
	adminPatterns []string
	stripWWW      bool

	// NotFound answers requests without a usable host.
	NotFound http.Handler
}

// NewRouter creates a router. A host is an admin host when it contains any
// of adminPatterns.
func NewRouter(adminPatterns []string, stripWWW bool) *Router {
	patterns := make([]string, 0, len(adminPatterns))
	for _, p := range adminPatterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			patterns = append(patterns, p)
		}
	}

	return &Router{
		adminPatterns: patterns,
		stripWWW:      stripWWW,
		NotFound:      http.NotFoundHandler(),
	}
}

// Classify normalizes host and decides where it belongs.
func (r *Router) Classify(host string) Decision {
	host = utils.NormalizeHost(host, r.stripWWW)
	return Decision{Host: host, Admin: r.isAdmin(host)}
}

// IsAdminHost reports whether host is served by the admin application.
func (r *Router) IsAdminHost(host string) bool {
	return r.Classify(host).Admin
}

func (r *Router) isAdmin(host string) bool {
	if host == "" {
		return false
	}
	for _, p := range r.adminPatterns {
		if strings.Contains(host, p) {
			return true
		}
	}
	return false
}

// Rewrite returns the internal path of a tenant request.
// Example: ("demo.example.com", "/products/x") -> "/site/demo.example.com/products/x".
func Rewrite(host, path string) string {
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return SitePrefix + host + path
}

// Middleware passes admin requests through and rewrites tenant requests
// onto the /site/{host} tree. The tenant host is stored in the request
// context.
func (r *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		d := r.Classify(req.Host)
		if d.Admin {
			next.ServeHTTP(w, req)
			return
		}

		if d.Host == "" {
			logger.DebugEvent().
				Str("path", req.URL.Path).
				Msg("Rejecting request without host")
			r.NotFound.ServeHTTP(w, req)
			return
		}

		rewritten := req.Clone(WithHost(req.Context(), d.Host))
		rewritten.URL.Path = Rewrite(d.Host, req.URL.Path)
		// keep escaped slashes inside a segment, e.g. a "C/C++" tag
		rewritten.URL.RawPath = Rewrite(d.Host, req.URL.EscapedPath())
		next.ServeHTTP(w, rewritten)
	})
}

// WithHost returns a context carrying the tenant host.
func WithHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, contextKey{}, host)
}

// HostFromContext returns the tenant host set by Middleware.
func HostFromContext(ctx context.Context) (string, bool) {
	host, ok := ctx.Value(contextKey{}).(string)
	return host, ok && host != ""
}
