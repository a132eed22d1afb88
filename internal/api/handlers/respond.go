package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/ratelimit"
	"github.com/rs/zerolog/hlog"
)

type errorBody struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// maxBodyBytes bounds request bodies; transcripts are the largest payload.
const maxBodyBytes = 4 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalid("Invalid request body")
	}
	return nil
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Message: message})
}

// WriteError translates a taxonomy error into its status and a safe
// message. Detail for internal and upstream failures is logged only.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := hlog.FromRequest(r)

	var authErr *auth.AuthError
	switch {
	case errors.As(err, &authErr):
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, common.ErrUnauthenticated):
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, common.ErrOwnerImmutable):
		respondMessage(w, http.StatusForbidden, "Cannot change owner privileges")
	case errors.Is(err, common.ErrForbidden):
		respondMessage(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, common.ErrDuplicateAccount):
		respondMessage(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		respondMessage(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, common.ErrValidation):
		respondMessage(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, common.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, common.ErrRateLimited):
		respondMessage(w, http.StatusTooManyRequests, ratelimit.RejectMessage)
	case errors.Is(err, common.ErrUpstreamTimeout):
		logger.Error().Err(err).Msg("Generation timed out")
		respondMessage(w, http.StatusGatewayTimeout, "Generation timed out, please try again")
	case errors.Is(err, common.ErrUpstream):
		logger.Error().Err(err).Msg("Generation failed")
		respondMessage(w, http.StatusInternalServerError, "Failed to generate, please try again")
	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// MethodNotAllowed answers a known path requested with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// validationError carries a message that is safe to show to the client.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return common.ErrValidation }

func invalid(msg string) error {
	return &validationError{msg: msg}
}

func validationMessage(err error) string {
	var v *validationError
	if errors.As(err, &v) {
		return v.msg
	}
	return "Invalid request"
}

// AdmissionResponder renders rate limiter outcomes in the API's error
// format.
type AdmissionResponder struct{}

// RateLimited implements ratelimit.Responder.
func (AdmissionResponder) RateLimited(w http.ResponseWriter, r *http.Request, _ time.Duration) {
	WriteError(w, r, common.ErrRateLimited)
}

// Failed implements ratelimit.Responder.
func (AdmissionResponder) Failed(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, err)
}
