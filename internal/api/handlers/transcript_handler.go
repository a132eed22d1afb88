package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TranscriptHandler handles chapter and title generation and the caller's
// transcript history.
type TranscriptHandler struct {
	service services.TranscriptServiceProvider
}

// NewTranscriptHandler creates a new TranscriptHandler.
func NewTranscriptHandler(service services.TranscriptServiceProvider) *TranscriptHandler {
	return &TranscriptHandler{service: service}
}

// ChaptersPayload is the body of a chapter generation request.
type ChaptersPayload struct {
	Transcript string `json:"transcript"`
	Format     string `json:"format"`
}

// TitlesPayload is the body of a title generation request.
type TitlesPayload struct {
	Transcript string `json:"transcript"`
}

func (p TitlesPayload) validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Transcript,
			validation.Required.Error("Transcript is too short"),
			validation.RuneLength(services.MinTitleTranscriptLength, 0).Error("Transcript is too short"),
		),
	)
}

// GenerateChapters produces chapters for a transcript and records it in
// the caller's history.
func (h *TranscriptHandler) GenerateChapters(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, common.ErrUnauthenticated)
		return
	}

	var payload ChaptersPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := validation.Validate(payload.Transcript, validation.Required); err != nil {
		WriteError(w, r, invalid("Transcript is required"))
		return
	}

	rec, err := h.service.GenerateChapters(r.Context(), id.AccountID, payload.Transcript, payload.Format)
	if err != nil {
		log.Error().Err(err).Str("user_id", id.AccountID).Msg("Failed to generate chapters")
		WriteError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"chapters":     rec.Chapters,
		"transcriptId": rec.ID,
	})
}

// GenerateTitles suggests titles for a transcript. Nothing is stored.
func (h *TranscriptHandler) GenerateTitles(w http.ResponseWriter, r *http.Request) {
	var payload TitlesPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := payload.validate(); err != nil {
		WriteError(w, r, invalid("Transcript is too short"))
		return
	}

	titles, err := h.service.GenerateTitles(r.Context(), payload.Transcript)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"titles": titles})
}

// List returns the caller's transcripts, newest first.
func (h *TranscriptHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, common.ErrUnauthenticated)
		return
	}

	transcripts, err := h.service.ListForAccount(r.Context(), id.AccountID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, transcripts)
}

// Delete removes one of the caller's transcripts. Records owned by other
// accounts are reported as not found.
func (h *TranscriptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, common.ErrUnauthenticated)
		return
	}

	transcriptID := chi.URLParam(r, "id")
	if err := h.service.DeleteForAccount(r.Context(), id.AccountID, transcriptID); err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Transcript deleted"})
}
