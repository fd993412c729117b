package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/blog"
	"github.com/yangtinglin69/saas/internal/server/web/middleware"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/logger"
)

type publishRequest struct {
	APIKey string `json:"api_key"`
	blog.PublishInput
}

type publishResponse struct {
	Success bool      `json:"success"`
	PostID  uuid.UUID `json:"post_id"`
	URL     string    `json:"url"`
	Action  string    `json:"action"`
}

type postSummary struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func publishError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// requestAPIKey returns the publishing key sent in the X-API-Key header, as
// a bearer token or in the api_key query parameter.
func requestAPIKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("api_key"))
}

// authorizeKey validates key and applies the per-key rate limit. It writes
// the failure response itself.
func (h *Handler) authorizeKey(w http.ResponseWriter, r *http.Request, key string) (*models.APIKey, bool) {
	if key == "" {
		publishError(w, http.StatusBadRequest, "Missing api_key")
		return nil, false
	}

	apiKey, err := h.keys.ValidateKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidAPIKey) {
			logger.WarnEvent().
				Str("ip", middleware.ClientIP(r)).
				Str("path", r.URL.Path).
				Msg("Rejected publishing key")
			publishError(w, http.StatusUnauthorized, "Invalid or inactive API key")
			return nil, false
		}
		logger.ErrorEvent().Err(err).Msg("Failed to validate API key")
		publishError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}

	if !h.publishLimiter.Allow(apiKey.ID.String()) {
		w.Header().Set("Retry-After", "1")
		publishError(w, http.StatusTooManyRequests, pkgerrors.ErrRateLimited.Error())
		return nil, false
	}

	return apiKey, true
}

// publishPost creates or replaces the post with the request slug on the
// key's site.
func (h *Handler) publishPost(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		publishError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	key := requestAPIKey(r)
	if key == "" {
		key = strings.TrimSpace(req.APIKey)
	}
	apiKey, ok := h.authorizeKey(w, r, key)
	if !ok {
		return
	}

	in := req.PublishInput
	if err := in.Validate(); err != nil {
		publishError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, action, err := h.posts.Upsert(r.Context(), apiKey.SiteID, in)
	if err != nil {
		if pkgerrors.IsConflict(err) {
			publishError(w, http.StatusConflict, err.Error())
			return
		}
		logger.ErrorEvent().
			Err(err).
			Str("site_id", apiKey.SiteID.String()).
			Str("slug", in.Slug).
			Msg("Failed to publish post")
		publishError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.InfoEvent().
		Str("site_id", apiKey.SiteID.String()).
		Str("slug", post.Slug).
		Str("action", action).
		Msg("Post published")

	respondJSON(w, http.StatusOK, publishResponse{
		Success: true,
		PostID:  post.ID,
		URL:     apiKey.Site.BaseURL(h.config.Sitemap.Scheme) + "/blog/" + post.Slug,
		Action:  action,
	})
}

// listPublishedPosts lists every post of the key's site, newest first.
func (h *Handler) listPublishedPosts(w http.ResponseWriter, r *http.Request) {
	apiKey, ok := h.authorizeKey(w, r, requestAPIKey(r))
	if !ok {
		return
	}

	posts, err := h.posts.ListAll(r.Context(), apiKey.SiteID)
	if err != nil {
		logger.ErrorEvent().
			Err(err).
			Str("site_id", apiKey.SiteID.String()).
			Msg("Failed to list posts")
		publishError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, postSummary{
			ID:          p.ID,
			Title:       p.Title,
			Slug:        p.Slug,
			Status:      p.Status,
			PublishedAt: p.PublishedAt,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"posts":   out,
	})
}
