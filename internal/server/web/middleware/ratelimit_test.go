package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_Burst(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1.0), 3)
	handler := rl.Limit(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// another client keeps its own bucket
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "192.168.1.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_LimitByKey(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.5), 1)
	handler := rl.LimitBy(func(r *http.Request) string {
		return r.Header.Get("X-API-Key")
	})(okHandler())

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/posts/publish", nil)
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("sk_a"))
	assert.Equal(t, http.StatusTooManyRequests, send("sk_a"))
	assert.Equal(t, http.StatusOK, send("sk_b"))
}

func TestAllow(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1.0), 2)

	assert.True(t, rl.Allow("key-1"))
	assert.True(t, rl.Allow("key-1"))
	assert.False(t, rl.Allow("key-1"))
	assert.True(t, rl.Allow("key-2"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{"remote addr", "10.0.0.1:5555", "", "", "10.0.0.1"},
		{"forwarded for wins", "127.0.0.1:1", "203.0.113.1, 10.0.0.2", "198.51.100.1", "203.0.113.1"},
		{"real ip", "127.0.0.1:1", "", "198.51.100.1", "198.51.100.1"},
		{"invalid forwarded falls through", "127.0.0.1:1", "garbage", "", "127.0.0.1"},
		{"unparseable remote", "pipe", "", "", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestGetVisitor_Reuse(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1.0), 5)

	first := rl.getVisitor("192.168.1.1")
	second := rl.getVisitor("192.168.1.1")
	assert.Same(t, first, second)
}

func TestPrune(t *testing.T) {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(1.0),
		burst:    5,
	}
	now := time.Now()
	for id, seen := range map[string]time.Time{
		"old":     now.Add(-15 * time.Minute),
		"recent":  now.Add(-5 * time.Minute),
		"current": now,
	} {
		rl.visitors[id] = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst), lastSeen: seen}
	}

	rl.prune(now, visitorIdle)

	assert.NotContains(t, rl.visitors, "old")
	assert.Contains(t, rl.visitors, "recent")
	assert.Contains(t, rl.visitors, "current")
}
