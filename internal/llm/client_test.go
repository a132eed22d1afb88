package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(Config{APIKey: "sk-test", BaseURL: url + "/", Model: "test-model", Timeout: timeout})
}

func TestGenerateChapters(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "00:00 Intro\n02:15 Setup\n")
	c := newTestClient(srv.URL, time.Second)

	out, err := c.GenerateChapters(context.Background(), "hello world transcript", "youtube")
	require.NoError(t, err)
	assert.Equal(t, "00:00 Intro\n02:15 Setup", out)
}

func TestGenerateTitles(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "1. First\n- \"Second\"\n\nThird")
	c := newTestClient(srv.URL, time.Second)

	titles, err := c.GenerateTitles(context.Background(), "a transcript long enough")
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second", "Third"}, titles)
}

func TestUpstreamError(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests, "")
	c := newTestClient(srv.URL, time.Second)

	_, err := c.GenerateChapters(context.Background(), "x", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestUpstreamTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 50*time.Millisecond)
	_, err := c.GenerateTitles(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamTimeout)
}

func TestChapterFormatHint(t *testing.T) {
	assert.Contains(t, chapterFormatHint(""), "youtube")
	assert.Contains(t, chapterFormatHint("detailed"), "summary")
	assert.Equal(t, "custom", chapterFormatHint("custom"))
}
