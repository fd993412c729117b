package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorIdle is how long an identifier is remembered after its last request.
const visitorIdle = 10 * time.Minute

// RateLimiter keeps one token bucket per identifier (client IP or API key).
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.RWMutex
	rate     rate.Limit // requests per second
	burst    int        // max burst size
}

// visitor tracks rate limit state for a single identifier.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter.
// rate: maximum requests per second (e.g., 0.5 = 1 request per 2 seconds)
// burst: maximum burst size (e.g., 3 = allow 3 requests immediately)
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}

	go rl.cleanupLoop()

	return rl
}

// getVisitor retrieves or creates the limiter of identifier.
func (rl *RateLimiter) getVisitor(identifier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[identifier]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[identifier] = &visitor{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Allow reports whether identifier may make a request now.
func (rl *RateLimiter) Allow(identifier string) bool {
	return rl.getVisitor(identifier).Allow()
}

// ClientIP extracts the client IP from the request.
// The leftmost X-Forwarded-For address wins, then X-Real-IP, then the
// connection address. Forwarded headers are only trustworthy behind a proxy
// that overwrites them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(clientIP) != nil {
			return clientIP
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Limit wraps an HTTP handler with rate limiting based on client IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return rl.LimitBy(ClientIP)(next)
}

// LimitBy rate limits requests by the identifier key returns.
func (rl *RateLimiter) LimitBy(key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(key(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// prune drops identifiers idle for longer than maxIdle.
func (rl *RateLimiter) prune(now time.Time, maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for id, v := range rl.visitors {
		if now.Sub(v.lastSeen) > maxIdle {
			delete(rl.visitors, id)
		}
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for now := range ticker.C {
		rl.prune(now, visitorIdle)
	}
}
