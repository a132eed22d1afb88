package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/chaptermark-be/internal/api"
	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/config"
	"github.com/isdelr/chaptermark-be/internal/database"
	"github.com/isdelr/chaptermark-be/internal/llm"
	"github.com/isdelr/chaptermark-be/internal/logger"
	"github.com/isdelr/chaptermark-be/internal/monitoring"
	"github.com/isdelr/chaptermark-be/internal/ratelimit"
	"github.com/isdelr/chaptermark-be/internal/services"
	"github.com/isdelr/chaptermark-be/internal/store"
	"github.com/isdelr/chaptermark-be/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}
	log.Info().Str("dialect", string(db.Dialect)).Msg("Database ready")

	// Set up admission control
	limitCfg := ratelimit.Config{Window: cfg.RateLimitWindow, MaxRequests: cfg.RateLimitMax}
	var limiter ratelimit.Limiter
	var sweeper monitoring.Sweeper
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		limiter = ratelimit.NewRedisLimiter(rdb, limitCfg)
		log.Info().Msg("Rate limit windows shared through Redis")
	} else {
		mem := ratelimit.NewMemoryLimiter(limitCfg)
		limiter, sweeper = mem, mem
		log.Info().Msg("Rate limit windows kept in process memory")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	accounts := store.NewAccountStore(db)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	eventService := services.NewEventService(db, hub)
	accountService, err := services.NewAccountService(accounts, auth.NewPasswordHasher(cfg.BcryptCost), tokens, eventService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize account service")
	}
	accountService.WithFeed(hub)
	generator := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})
	transcriptService := services.NewTranscriptService(db, generator)

	// Set up and run the background scheduler
	schedCfg := monitoring.DefaultSchedulerConfig
	schedCfg.EventRetention = cfg.EventRetention
	scheduler, err := monitoring.NewScheduler(sweeper, eventService, schedCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	scheduler.Run()

	// Set up router
	router := api.NewRouter(api.Options{
		TrustProxy:   cfg.TrustProxy,
		CORSOrigins:  cfg.CORSOrigins,
		SecureCookie: cfg.IsProduction(),
		RateLimit:    limitCfg,
	}, api.Dependencies{
		Accounts:    accountService,
		Transcripts: transcriptService,
		Events:      eventService,
		Lookup:      accounts,
		Tokens:      tokens,
		Limiter:     limiter,
		Hub:         hub,
		Stats:       monitoring.NewSystemCollector(),
		DB:          db,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
