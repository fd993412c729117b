package api

import (
	"errors"
	"net/http"

	"github.com/yangtinglin69/saas/internal/server/auth"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/logger"
)

// twoFactorStatus returns the 2FA status for the current user
func (h *Handler) twoFactorStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondServiceError(w, r, err, "Failed to fetch user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": user.TwoFactorEnabled,
	})
}

// twoFactorSetup starts 2FA setup and returns the secret and its otpauth URL
func (h *Handler) twoFactorSetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	secret, qrURL, err := h.users.BeginTwoFactor(r.Context(), userID)
	switch {
	case errors.Is(err, auth.ErrTwoFactorEnabled):
		respondError(w, http.StatusBadRequest, "2FA is already enabled")
		return
	case errors.Is(err, pkgerrors.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		respondServiceError(w, r, err, "Failed to generate secret")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"secret": secret,
		"qr_url": qrURL,
	})
}

// twoFactorVerify checks a code against the pending secret and enables 2FA
func (h *Handler) twoFactorVerify(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	err := h.users.EnableTwoFactor(r.Context(), userID, req.Code)
	switch {
	case errors.Is(err, auth.ErrTwoFactorNotStarted):
		respondError(w, http.StatusBadRequest, "2FA setup not initiated")
		return
	case errors.Is(err, auth.ErrInvalidOTP):
		respondError(w, http.StatusBadRequest, "invalid code")
		return
	case errors.Is(err, pkgerrors.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		respondServiceError(w, r, err, "Failed to enable 2FA")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "2FA enabled successfully",
	})
}

// twoFactorDisable turns 2FA off after checking the account password
func (h *Handler) twoFactorDisable(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "password is required")
		return
	}

	err := h.users.DisableTwoFactor(r.Context(), userID, req.Password)
	switch {
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		logger.WarnEvent().
			Str("user_id", userID.String()).
			Msg("2FA disable refused, wrong password")
		respondError(w, http.StatusUnauthorized, "invalid password")
		return
	case errors.Is(err, pkgerrors.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		respondServiceError(w, r, err, "Failed to disable 2FA")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "2FA disabled successfully",
	})
}
