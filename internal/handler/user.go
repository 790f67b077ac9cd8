package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/user"
)

// userIDFromPath extracts and parses the user id path parameter, writing a
// 400 response on failure
func userIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "userID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Invalid user ID in path", "value", idStr)
		http.Error(w, ErrMsgInvalidUserID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// HandleGetProfile returns a user's profile
func HandleGetProfile(userSvc user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		profile, err := userSvc.GetProfile(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetProfileFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, profile)
	}
}

// SetVerificationRequest carries a tier update from the KYC provider
type SetVerificationRequest struct {
	Handle string `json:"handle" validate:"omitempty,max=64"`
	Tier   string `json:"tier" validate:"required,verification_tier"`
}

// HandleSetVerification records a user's verification tier
func HandleSetVerification(userSvc user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		var req SetVerificationRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Set verification"); err != nil {
			return
		}

		tier, _ := domain.ParseVerificationTier(req.Tier)

		profile, err := userSvc.SetVerificationTier(r.Context(), userID, req.Handle, tier)
		if err != nil {
			respondServiceError(w, r, ErrMsgSetVerificationFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, profile)
	}
}
