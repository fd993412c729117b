package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/modules"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
)

type updateModuleRequest struct {
	Enabled      *bool           `json:"enabled"`
	DisplayOrder *int            `json:"display_order"`
	Content      json.RawMessage `json:"content"`
}

type reorderModulesRequest struct {
	Kinds []string `json:"kinds"`
}

func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	mods, err := h.modules.ListBySite(r.Context(), site.ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch modules")
		return
	}

	respondJSON(w, http.StatusOK, byDisplayOrder(mods))
}

func (h *Handler) updateModule(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	var req updateModuleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mod, err := h.modules.Update(r.Context(), site.ID, r.PathValue("kind"), modules.Update{
		Enabled:      req.Enabled,
		DisplayOrder: req.DisplayOrder,
		Content:      req.Content,
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to update module")
		return
	}

	respondJSON(w, http.StatusOK, mod)
}

func (h *Handler) reorderModules(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	var req reorderModulesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Kinds) == 0 {
		respondError(w, http.StatusBadRequest, "Kinds are required")
		return
	}

	if err := h.modules.Reorder(r.Context(), site.ID, req.Kinds); err != nil {
		respondServiceError(w, r, err, "Failed to reorder modules")
		return
	}

	mods, err := h.modules.ListBySite(r.Context(), site.ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch modules")
		return
	}

	respondJSON(w, http.StatusOK, byDisplayOrder(mods))
}

// byDisplayOrder sorts enabled and disabled modules alike for the editor.
func byDisplayOrder(mods []models.Module) []models.Module {
	sort.SliceStable(mods, func(i, j int) bool {
		return mods[i].DisplayOrder < mods[j].DisplayOrder
	})
	return mods
}

// previewModule renders the stored document of a module, or on POST the
// draft document in the request body.
func (h *Handler) previewModule(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}
	kind := r.PathValue("kind")

	var content []byte
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		content = body
	} else {
		mod, err := h.modules.Get(r.Context(), site.ID, kind)
		if err != nil {
			respondServiceError(w, r, err, "Failed to fetch module")
			return
		}
		content = mod.Content
	}

	sec, err := h.composer.Preview(r.Context(), site, kind, content)
	if err != nil {
		respondServiceError(w, r, pkgerrors.ErrInvalidContent, "Failed to render module")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"kind": sec.Kind,
		"html": string(sec.HTML),
	})
}
