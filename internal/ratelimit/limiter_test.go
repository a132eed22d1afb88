package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingResponder struct{}

func (recordingResponder) RateLimited(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
	http.Error(w, RejectMessage, http.StatusTooManyRequests)
}

func (recordingResponder) Failed(w http.ResponseWriter, _ *http.Request, _ error) {
	w.WriteHeader(http.StatusInternalServerError)
}

type brokenLimiter struct{}

func (brokenLimiter) TryAdmit(context.Context, string) (bool, error) {
	return false, errors.New("boom")
}

func TestMiddleware(t *testing.T) {
	cfg := Config{Window: time.Minute, MaxRequests: 2}
	calls := 0
	h := Middleware(NewMemoryLimiter(cfg), cfg, recordingResponder{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("198.51.100.7:1111").Code)
	// A different source port is the same client.
	assert.Equal(t, http.StatusOK, do("198.51.100.7:2222").Code)

	rec := do("198.51.100.7:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), RejectMessage)
	assert.Equal(t, 2, calls)
}

func TestMiddleware_LimiterFailure(t *testing.T) {
	h := Middleware(brokenLimiter{}, DefaultConfig, recordingResponder{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", ClientKey(req))

	req.RemoteAddr = "203.0.113.5"
	assert.Equal(t, "203.0.113.5", ClientKey(req))
}
