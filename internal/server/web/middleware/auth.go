package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yangtinglin69/saas/pkg/logger"
)

// AuthCookieName is the httpOnly cookie carrying the admin session token.
const AuthCookieName = "auth_token"

// DefaultTokenTTL is the lifetime of admin session tokens.
const DefaultTokenTTL = 24 * time.Hour

type contextKey string

const claimsContextKey contextKey = "claims"

// Claims represents the admin session JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	jwtSecret []byte
	ttl       time.Duration
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtSecret string, ttl time.Duration) *AuthMiddleware {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthMiddleware{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
	}
}

// TTL returns the lifetime of issued tokens.
func (m *AuthMiddleware) TTL() time.Duration {
	return m.ttl
}

// Protect wraps a handler with JWT authentication.
// The httpOnly cookie is checked first, then the Authorization header.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tokenString string

		if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
			tokenString = cookie.Value
		} else {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Unauthorized")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "Invalid authorization header")
				return
			}
			tokenString = parts[1]
		}

		claims, err := m.ParseToken(tokenString)
		if err != nil {
			logger.WarnEvent().Err(err).Str("path", r.URL.Path).Msg("Invalid token")
			unauthorized(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(SetClaimsInContext(r.Context(), claims)))
	})
}

// ParseToken validates a token string and returns its claims.
func (m *AuthMiddleware) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GenerateToken generates a session token for a user
func (m *AuthMiddleware) GenerateToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.jwtSecret)
}

// SetClaimsInContext stores claims in the request context
func SetClaimsInContext(ctx context.Context, claims *Claims) context.Context {
	if h := claimsHolderFrom(ctx); h != nil {
		h.claims = claims
	}
	return context.WithValue(ctx, claimsContextKey, claims)
}

// GetClaimsFromContext retrieves claims from the request context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}

// UserIDFromContext returns the authenticated user's ID.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims := GetClaimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
