package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/auth"
	"github.com/yangtinglin69/saas/internal/server/blog"
	"github.com/yangtinglin69/saas/internal/server/catalog"
	"github.com/yangtinglin69/saas/internal/server/composer"
	"github.com/yangtinglin69/saas/internal/server/config"
	"github.com/yangtinglin69/saas/internal/server/importer"
	"github.com/yangtinglin69/saas/internal/server/modules"
	"github.com/yangtinglin69/saas/internal/server/sitemap"
	"github.com/yangtinglin69/saas/internal/server/tenant"
	"github.com/yangtinglin69/saas/internal/server/web/middleware"
	"github.com/yangtinglin69/saas/internal/version"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/logger"
)

// Services are the domain services behind the API.
type Services struct {
	Users    *auth.UserService
	Keys     *auth.APIKeyService
	Tenants  *tenant.Directory
	Modules  *modules.Store
	Catalog  *catalog.Service
	Posts    *blog.Service
	Composer *composer.Composer
	Sitemap  *sitemap.Generator
	Importer *importer.Importer
}

// Handler handles admin and publishing API requests
type Handler struct {
	users    *auth.UserService
	keys     *auth.APIKeyService
	tenants  *tenant.Directory
	modules  *modules.Store
	catalog  *catalog.Service
	posts    *blog.Service
	composer *composer.Composer
	sitemap  *sitemap.Generator
	importer *importer.Importer

	config         *config.Config
	authMW         *middleware.AuthMiddleware
	loginLimiter   *middleware.RateLimiter
	publishLimiter *middleware.RateLimiter
}

// NewHandler creates a new API handler
func NewHandler(svc Services, cfg *config.Config) *Handler {
	publishRate, burst := cfg.Publish.Rate, cfg.Publish.Burst
	if publishRate <= 0 {
		publishRate = 1
	}
	if burst <= 0 {
		burst = 10
	}

	return &Handler{
		users:    svc.Users,
		keys:     svc.Keys,
		tenants:  svc.Tenants,
		modules:  svc.Modules,
		catalog:  svc.Catalog,
		posts:    svc.Posts,
		composer: svc.Composer,
		sitemap:  svc.Sitemap,
		importer: svc.Importer,

		config:         cfg,
		authMW:         middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		loginLimiter:   middleware.NewRateLimiter(rate.Limit(1), 5),
		publishLimiter: middleware.NewRateLimiter(rate.Limit(publishRate), burst),
	}
}

// AuthMiddleware returns the session middleware guarding the admin routes
func (h *Handler) AuthMiddleware() *middleware.AuthMiddleware {
	return h.authMW
}

// isAllowedOrigin reports whether origin may call the API with credentials
func (h *Handler) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	return slices.Contains(h.config.Server.AllowedOrigins, origin)
}

// CORSMiddleware adds CORS headers for allowed origins
func (h *Handler) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if h.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Add("Vary", "Origin")
		}

		// Handle preflight OPTIONS request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.Handler {
		return h.authMW.Protect(fn)
	}

	// Public routes
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("GET /api/version", h.getVersion)
	mux.Handle("POST /api/auth/login", h.loginLimiter.Limit(http.HandlerFunc(h.login)))
	mux.HandleFunc("POST /api/auth/logout", h.logout)

	// Publishing API (per-site key instead of a session)
	mux.HandleFunc("POST /api/posts/publish", h.publishPost)
	mux.HandleFunc("GET /api/posts", h.listPublishedPosts)

	// Protected routes (require JWT)
	mux.Handle("GET /api/auth/me", protect(h.me))

	mux.Handle("GET /api/2fa/status", protect(h.twoFactorStatus))
	mux.Handle("POST /api/2fa/setup", protect(h.twoFactorSetup))
	mux.Handle("POST /api/2fa/verify", protect(h.twoFactorVerify))
	mux.Handle("POST /api/2fa/disable", protect(h.twoFactorDisable))

	mux.Handle("GET /api/domains", protect(h.listDomains))
	mux.Handle("POST /api/domains", protect(h.createDomain))
	mux.Handle("PATCH /api/domains/{id}/toggle", protect(h.toggleDomain))

	mux.Handle("GET /api/sites", protect(h.listSites))
	mux.Handle("POST /api/sites", protect(h.createSite))
	mux.Handle("GET /api/sites/{id}", protect(h.getSite))
	mux.Handle("PATCH /api/sites/{id}", protect(h.updateSite))
	mux.Handle("PATCH /api/sites/{id}/toggle", protect(h.toggleSite))

	mux.Handle("GET /api/sites/{id}/modules", protect(h.listModules))
	mux.Handle("PUT /api/sites/{id}/modules/order", protect(h.reorderModules))
	mux.Handle("PUT /api/sites/{id}/modules/{kind}", protect(h.updateModule))
	mux.Handle("GET /api/sites/{id}/modules/{kind}/preview", protect(h.previewModule))
	mux.Handle("POST /api/sites/{id}/modules/{kind}/preview", protect(h.previewModule))

	mux.Handle("GET /api/sites/{id}/products", protect(h.listProducts))
	mux.Handle("POST /api/sites/{id}/products", protect(h.createProduct))
	mux.Handle("GET /api/sites/{id}/products/{product_id}", protect(h.getProduct))
	mux.Handle("PUT /api/sites/{id}/products/{product_id}", protect(h.updateProduct))
	mux.Handle("PATCH /api/sites/{id}/products/{product_id}/toggle", protect(h.toggleProduct))

	mux.Handle("POST /api/sites/{id}/import/{target}", protect(h.importFile))
	mux.Handle("GET /api/sites/{id}/sitemap", protect(h.sitemapGroups))
	mux.Handle("GET /api/sites/{id}/posts", protect(h.listSitePosts))

	mux.Handle("GET /api/sites/{id}/api-keys", protect(h.listAPIKeys))
	mux.Handle("POST /api/sites/{id}/api-keys", protect(h.createAPIKey))
	mux.Handle("DELETE /api/sites/{id}/api-keys/{key_id}", protect(h.revokeAPIKey))
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error to its status code. Unexpected
// errors are logged and answered with msg.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case pkgerrors.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case pkgerrors.IsConflict(err):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidSubdomain),
		errors.Is(err, pkgerrors.ErrInvalidSlug),
		errors.Is(err, pkgerrors.ErrInvalidContent),
		errors.Is(err, pkgerrors.ErrUnsupportedInput),
		errors.Is(err, pkgerrors.ErrDomainInactive):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		logger.ErrorEvent().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(msg)
		respondError(w, http.StatusInternalServerError, msg)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// siteFromPath loads the site named by the {id} path value. Sites of other
// users are reported as missing.
func (h *Handler) siteFromPath(w http.ResponseWriter, r *http.Request) (*models.Site, bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return nil, false
	}
	siteID, ok := pathUUID(w, r, "id")
	if !ok {
		return nil, false
	}

	site, err := h.tenants.GetSite(r.Context(), userID, siteID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch site")
		return nil, false
	}
	return site, true
}

// health returns a simple health check response
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "saas-server",
	})
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, version.GetVersion())
}

// Auth handlers

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTPCode  string `json:"otp_code,omitempty"` // For 2FA verification
}

type loginResponse struct {
	Token       string `json:"token,omitempty"`
	User        string `json:"user"`
	Requires2FA bool   `json:"requires_2fa,omitempty"` // Indicates 2FA is needed
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password, req.OTPCode)
	switch {
	case errors.Is(err, auth.ErrOTPRequired):
		respondJSON(w, http.StatusOK, loginResponse{
			User:        req.Username,
			Requires2FA: true,
		})
		return
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		logger.WarnEvent().
			Str("user", req.Username).
			Str("ip", middleware.ClientIP(r)).
			Msg("Failed login attempt")
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		respondServiceError(w, r, err, "Failed to authenticate")
		return
	}

	token, err := h.authMW.GenerateToken(user.ID, user.Email)
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to generate token")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authMW.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  user.Email,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		respondServiceError(w, r, err, "Failed to fetch user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
