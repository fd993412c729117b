package api

import (
	"errors"
	"net/http"
	"strings"

	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
)

type createAPIKeyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	keys, err := h.keys.ListKeys(r.Context(), site.ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch API keys")
		return
	}

	respondJSON(w, http.StatusOK, keys)
}

func (h *Handler) createAPIKey(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	var req createAPIKeyRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	key, rawKey, err := h.keys.CreateKey(r.Context(), site.ID, strings.TrimSpace(req.Name))
	if err != nil {
		respondServiceError(w, r, err, "Failed to create API key")
		return
	}

	// Include raw key in response (only time it's visible)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":           key.ID,
		"site_id":      key.SiteID,
		"name":         key.Name,
		"key":          rawKey,
		"is_active":    key.IsActive,
		"created_at":   key.CreatedAt,
		"last_used_at": key.LastUsedAt,
	})
}

func (h *Handler) revokeAPIKey(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}
	keyID, ok := pathUUID(w, r, "key_id")
	if !ok {
		return
	}

	if err := h.keys.RevokeKey(r.Context(), site.ID, keyID); err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidAPIKey) {
			respondError(w, http.StatusNotFound, "API key not found")
			return
		}
		respondServiceError(w, r, err, "Failed to revoke API key")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
