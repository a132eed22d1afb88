package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/chaptermark-be/internal/api/handlers"
	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/models"
	"github.com/isdelr/chaptermark-be/internal/ratelimit"
	"github.com/isdelr/chaptermark-be/internal/services"
	"github.com/isdelr/chaptermark-be/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Options configures the HTTP surface.
type Options struct {
	TrustProxy   bool
	CORSOrigins  []string
	SecureCookie bool
	RateLimit    ratelimit.Config
}

// Dependencies are the collaborators the handlers are built from.
type Dependencies struct {
	Accounts    services.AccountServiceProvider
	Transcripts services.TranscriptServiceProvider
	Events      services.EventServiceProvider
	Lookup      auth.AccountLookup
	Tokens      auth.TokenVerifier
	Limiter     ratelimit.Limiter
	Hub         *websocket.Hub
	Stats       handlers.SystemStatsProvider
	DB          handlers.Pinger
}

// NewRouter creates and configures a new Chi router.
func NewRouter(opts Options, deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(log.Logger)...)
	r.Use(middleware.Recoverer)

	// CORS runs ahead of admission so preflights are not counted.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Every route, authenticated or not, is admission-controlled before
	// the body is read or the token is checked.
	r.Use(ratelimit.Middleware(deps.Limiter, opts.RateLimit, handlers.AdmissionResponder{}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.Accounts, opts.SecureCookie)
	profileHandler := handlers.NewProfileHandler(deps.Accounts)
	transcriptHandler := handlers.NewTranscriptHandler(deps.Transcripts)
	adminHandler := handlers.NewAdminHandler(deps.Accounts, deps.Stats, deps.Hub)
	eventHandler := handlers.NewEventHandler(deps.Events)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, opts.CORSOrigins)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	authenticate := auth.Authenticate(deps.Tokens, handlers.WriteError)
	requireAdmin := auth.RequireRole(deps.Lookup, models.RoleAdmin, handlers.WriteError)
	requireOwner := auth.RequireRole(deps.Lookup, models.RoleOwner, handlers.WriteError)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, common.ErrNotFound)
	})
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/health", healthHandler.Check)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/generate-chapters", transcriptHandler.GenerateChapters)
			r.Post("/generate-titles", transcriptHandler.GenerateTitles)

			// /history is the older name for the same collection.
			for _, base := range []string{"/transcripts", "/history"} {
				r.Get(base, transcriptHandler.List)
				r.Delete(base+"/{id}", transcriptHandler.Delete)
			}

			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.Update)

			r.Route("/admin", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Get("/users", adminHandler.ListUsers)
					r.Get("/system", adminHandler.SystemStatus)
					r.Get("/events", eventHandler.GetRecent)
					r.Get("/events/ws", wsHandler.Serve)
				})

				r.Group(func(r chi.Router) {
					r.Use(requireOwner)
					r.Put("/toggle-admin/{userId}", adminHandler.ToggleAdmin)
				})
			})
		})
	})

	return r
}

// requestLogger attaches the global logger to each request and writes one
// access line per response.
func requestLogger(logger zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		hlog.NewHandler(logger),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("req_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("Request handled")
		}),
		hlog.RemoteAddrHandler("ip"),
	}
}
