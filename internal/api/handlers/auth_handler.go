package handlers

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	service      services.AccountServiceProvider
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the token
// cookie Secure and should be true in production.
func NewAuthHandler(service services.AccountServiceProvider, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie}
}

// CredentialsPayload is the body of register and login requests.
type CredentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p CredentialsPayload) validateRegister() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		// bcrypt ignores input past 72 bytes.
		validation.Field(&p.Password, validation.Required, validation.Length(6, 72)),
	)
}

func (p CredentialsPayload) validateLogin() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register handles new account registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := payload.validateRegister(); err != nil {
		WriteError(w, r, invalid(err.Error()))
		return
	}

	token, acc, err := h.service.Register(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to register account")
		WriteError(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	log.Info().Str("user_id", acc.ID).Msg("Issued token on registration")
	respondJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// Login handles authentication and token issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := payload.validateLogin(); err != nil {
		WriteError(w, r, invalid(err.Error()))
		return
	}

	token, acc, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	log.Info().Str("user_id", acc.ID).Msg("Account logged in")
	respondJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// setTokenCookie lets browser clients open the admin feed, where the
// WebSocket handshake cannot carry an Authorization header.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(auth.TokenTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}
