package handlers

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	service services.AccountServiceProvider
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(service services.AccountServiceProvider) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// ProfilePayload is the body of a profile update.
type ProfilePayload struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

func (p ProfilePayload) validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DisplayName, validation.RuneLength(0, 100)),
		validation.Field(&p.Bio, validation.RuneLength(0, 500)),
	)
}

// Get returns the authenticated caller's profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, common.ErrUnauthenticated)
		return
	}

	acc, err := h.service.GetProfile(r.Context(), id.AccountID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

// Update sets the caller's display name and bio.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, common.ErrUnauthenticated)
		return
	}

	var payload ProfilePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := payload.validate(); err != nil {
		WriteError(w, r, invalid(err.Error()))
		return
	}

	acc, err := h.service.UpdateProfile(r.Context(), id.AccountID, payload.DisplayName, payload.Bio)
	if err != nil {
		log.Error().Err(err).Str("user_id", id.AccountID).Msg("Failed to update profile")
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}
