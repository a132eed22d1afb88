package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/monitoring"
	"github.com/isdelr/chaptermark-be/internal/services"
	"github.com/rs/zerolog/log"
)

// SystemStatsProvider reports host statistics.
type SystemStatsProvider interface {
	Collect(ctx context.Context) (monitoring.SystemStats, error)
}

// SubscriberCounter reports how many clients are on the live event feed.
type SubscriberCounter interface {
	Len() int
}

// AdminHandler handles the admin console endpoints.
type AdminHandler struct {
	service     services.AccountServiceProvider
	stats       SystemStatsProvider
	subscribers SubscriberCounter
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service services.AccountServiceProvider, stats SystemStatsProvider, subscribers SubscriberCounter) *AdminHandler {
	return &AdminHandler{service: service, stats: stats, subscribers: subscribers}
}

// ListUsers returns every account. Password hashes never leave the
// server; models.Account does not serialise them.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// ToggleAdmin flips the target account between user and admin.
func (h *AdminHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, common.ErrUnauthenticated)
		return
	}

	targetID := chi.URLParam(r, "userId")
	acc, err := h.service.ToggleAdmin(r.Context(), id.AccountID, targetID)
	if err != nil {
		log.Warn().Err(err).Str("actor_id", id.AccountID).Str("target_id", targetID).Msg("Admin toggle refused")
		WriteError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Admin status updated",
		"user":    acc,
	})
}

// SystemStatus reports host load and the live feed subscriber count.
func (h *AdminHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Collect(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if h.subscribers != nil {
		stats.FeedSubscribers = h.subscribers.Len()
	}
	respondJSON(w, http.StatusOK, stats)
}
