package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/importer"
	"github.com/yangtinglin69/saas/pkg/logger"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), site.ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "product_id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), site.ID, productID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	// absent flags default to a visible product
	product := models.Product{IsActive: true, ShowInRanking: true}
	if !decodeBody(w, r, &product) {
		return
	}
	product.ID = uuid.Nil
	if strings.TrimSpace(product.Name) == "" {
		respondError(w, http.StatusBadRequest, "Product name is required")
		return
	}

	if err := h.catalog.CreateProduct(r.Context(), site.ID, &product); err != nil {
		respondServiceError(w, r, err, "Failed to create product")
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// updateProduct overlays the request body on the stored product, so
// omitted fields keep their values.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "product_id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), site.ID, productID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch product")
		return
	}
	if !decodeBody(w, r, product) {
		return
	}
	if strings.TrimSpace(product.Name) == "" {
		respondError(w, http.StatusBadRequest, "Product name is required")
		return
	}

	updated, err := h.catalog.UpdateProduct(r.Context(), site.ID, productID, product)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update product")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) toggleProduct(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "product_id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), site.ID, productID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch product")
		return
	}

	product.IsActive = !product.IsActive
	if err := h.catalog.SetActive(r.Context(), site.ID, productID, product.IsActive); err != nil {
		respondServiceError(w, r, err, "Failed to toggle product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// importFile bulk-loads a CSV or XLSX upload into products or a module list.
func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	maxBytes := int64(h.config.Import.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = importer.MaxFileSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	result, err := h.importer.Import(r.Context(), site.ID, r.PathValue("target"), header.Filename, file)
	if err != nil {
		logger.WarnEvent().
			Err(err).
			Str("site_id", site.ID.String()).
			Str("file", header.Filename).
			Msg("Import rejected")
		respondServiceError(w, r, err, "Failed to import file")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) sitemapGroups(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	groups, err := h.sitemap.Groups(r.Context(), site)
	if err != nil {
		respondServiceError(w, r, err, "Failed to build sitemap")
		return
	}

	total := 0
	for _, g := range groups {
		total += len(g)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"host":       site.FullDomain,
		"group_size": h.sitemap.GroupSize(),
		"total":      total,
		"groups":     groups,
	})
}

func (h *Handler) listSitePosts(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.ListAll(r.Context(), site.ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch posts")
		return
	}

	respondJSON(w, http.StatusOK, posts)
}
