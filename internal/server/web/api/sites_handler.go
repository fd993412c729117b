package api

import (
	"net/http"
	"strings"

	"github.com/yangtinglin69/saas/internal/server/tenant"
	"github.com/yangtinglin69/saas/pkg/logger"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// Domain handlers

type createDomainRequest struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

func (h *Handler) listDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.tenants.ListDomains(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch domains")
		return
	}

	respondJSON(w, http.StatusOK, domains)
}

func (h *Handler) createDomain(w http.ResponseWriter, r *http.Request) {
	var req createDomainRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if !utils.IsValidDomain(strings.ToLower(strings.TrimSpace(req.Domain))) {
		respondError(w, http.StatusBadRequest, "Invalid domain")
		return
	}

	domain, err := h.tenants.CreateDomain(r.Context(), req.Domain, req.Name)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create domain")
		return
	}

	logger.InfoEvent().
		Str("domain", domain.Domain).
		Msg("Domain registered")

	respondJSON(w, http.StatusCreated, domain)
}

func (h *Handler) toggleDomain(w http.ResponseWriter, r *http.Request) {
	domainID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	domain, err := h.tenants.GetDomain(r.Context(), domainID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch domain")
		return
	}

	domain.IsActive = !domain.IsActive
	if err := h.tenants.SetDomainActive(r.Context(), domainID, domain.IsActive); err != nil {
		respondServiceError(w, r, err, "Failed to toggle domain")
		return
	}

	respondJSON(w, http.StatusOK, domain)
}

// Site handlers

func (h *Handler) listSites(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	sites, err := h.tenants.ListSites(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch sites")
		return
	}

	respondJSON(w, http.StatusOK, sites)
}

func (h *Handler) createSite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req tenant.CreateSiteInput
	if !decodeBody(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Subdomain == "" {
		respondError(w, http.StatusBadRequest, "Name and subdomain are required")
		return
	}

	site, err := h.tenants.CreateSite(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create site")
		return
	}

	respondJSON(w, http.StatusCreated, site)
}

func (h *Handler) getSite(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, site)
}

func (h *Handler) updateSite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	siteID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req tenant.UpdateSiteInput
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Name cannot be empty")
		return
	}

	site, err := h.tenants.UpdateSite(r.Context(), userID, siteID, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update site")
		return
	}

	respondJSON(w, http.StatusOK, site)
}

func (h *Handler) toggleSite(w http.ResponseWriter, r *http.Request) {
	site, ok := h.siteFromPath(w, r)
	if !ok {
		return
	}

	site.IsActive = !site.IsActive
	if err := h.tenants.SetActive(r.Context(), site.UserID, site.ID, site.IsActive); err != nil {
		respondServiceError(w, r, err, "Failed to toggle site")
		return
	}

	respondJSON(w, http.StatusOK, site)
}
