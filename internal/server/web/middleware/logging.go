package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/yangtinglin69/saas/pkg/logger"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// HTTPLogger logs all HTTP requests
func HTTPLogger(next http.Handler) http.Handler {
	return HTTPLoggerWithLevel(next, "info")
}

// HTTPLoggerWithLevel logs HTTP requests based on configured level.
// logLevel: "silent" logs nothing, "error" logs 5xx, "warn" logs 4xx and
// 5xx, anything else logs every request.
func HTTPLoggerWithLevel(next http.Handler, logLevel string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Protect stores the claims on a derived request, so they come back
		// through a holder shared by context.
		holder := &claimsHolder{}
		next.ServeHTTP(rw, r.WithContext(withClaimsHolder(r.Context(), holder)))

		logEvent := eventFor(logLevel, rw.statusCode)
		if logEvent == nil {
			return
		}

		duration := time.Since(start)
		logEvent = logEvent.
			Str("host", r.Host).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Int("status", rw.statusCode).
			Int64("bytes", rw.written).
			Dur("duration", duration)

		if claims := holder.claims; claims != nil {
			logEvent = logEvent.
				Str("user_id", claims.UserID).
				Str("email", claims.Email)
		}

		if r.URL.RawQuery != "" {
			logEvent = logEvent.Str("query", r.URL.RawQuery)
		}

		logEvent.Msg("HTTP request")
	})
}

// eventFor picks the log event for a response status, or nil when the
// configured level filters it out.
func eventFor(logLevel string, status int) *zerolog.Event {
	switch logLevel {
	case "silent":
		return nil
	case "error":
		if status < 500 {
			return nil
		}
	case "warn":
		if status < 400 {
			return nil
		}
	}

	switch {
	case status >= 500:
		return logger.ErrorEvent()
	case status >= 400:
		return logger.WarnEvent()
	default:
		return logger.InfoEvent()
	}
}

const claimsHolderKey contextKey = "claims_holder"

// claimsHolder lets Protect report the authenticated user back to the
// access logger wrapping it.
type claimsHolder struct {
	claims *Claims
}

func withClaimsHolder(ctx context.Context, h *claimsHolder) context.Context {
	return context.WithValue(ctx, claimsHolderKey, h)
}

func claimsHolderFrom(ctx context.Context) *claimsHolder {
	h, _ := ctx.Value(claimsHolderKey).(*claimsHolder)
	return h
}
