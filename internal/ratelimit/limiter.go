// Package ratelimit implements per-client admission control with fixed
// request windows. Counters live either in process memory or in Redis;
// both satisfy Limiter.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// RejectMessage is the client-visible message for throttled requests.
const RejectMessage = "Too many requests, please try again in a minute"

// Config holds rate limiter tuning parameters.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultConfig admits 10 requests per client per minute.
var DefaultConfig = Config{Window: time.Minute, MaxRequests: 10}

// Limiter decides whether one more request from key is admitted. The
// increment and the comparison against the ceiling happen atomically.
type Limiter interface {
	TryAdmit(ctx context.Context, key string) (bool, error)
}

// Responder writes the rejection and failure responses for Middleware.
type Responder interface {
	RateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)
	Failed(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware admits or rejects each request before any other processing.
// The client key is the remote address without its port; put
// chi's RealIP in front when running behind a trusted proxy.
func Middleware(l Limiter, cfg Config, resp Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r)

			ok, err := l.TryAdmit(r.Context(), key)
			if err != nil {
				log.Error().Err(err).Str("client", key).Msg("Admission check failed")
				resp.Failed(w, r, err)
				return
			}
			if !ok {
				log.Warn().Str("client", key).Str("path", r.URL.Path).Msg("Request rate limited")
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				resp.RateLimited(w, r, cfg.Window)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey derives the per-client limiter key from the request.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
