// Package llm talks to an OpenAI-compatible chat completions endpoint to
// turn transcripts into chapter markers and title suggestions.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/isdelr/chaptermark-be/internal/common"
)

// Generator produces chapters and titles from a transcript.
type Generator interface {
	GenerateChapters(ctx context.Context, transcript, format string) (string, error)
	GenerateTitles(ctx context.Context, transcript string) ([]string, error)
}

// Config configures Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client is a Generator backed by the chat completions API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: &http.Client{}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateChapters returns chapter markers ("00:00 Intro" per line) in the
// requested format.
func (c *Client) GenerateChapters(ctx context.Context, transcript, format string) (string, error) {
	system := "You write chapter markers for videos. Reply with one chapter per line as " +
		"'MM:SS Title' (or 'HH:MM:SS Title' past one hour), starting at 00:00, and nothing else."
	prompt := fmt.Sprintf("Format: %s\n\nTranscript:\n%s", chapterFormatHint(format), transcript)

	out, err := c.complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GenerateTitles returns a handful of title suggestions.
func (c *Client) GenerateTitles(ctx context.Context, transcript string) ([]string, error) {
	system := "You suggest engaging video titles. Reply with exactly five titles, one per line, " +
		"without numbering or quotes."

	out, err := c.complete(ctx, system, "Transcript:\n"+transcript)
	if err != nil {
		return nil, err
	}
	return splitTitles(out), nil
}

func chapterFormatHint(format string) string {
	switch format {
	case "detailed":
		return "detailed: include a one-sentence summary after each title, separated by ' - '"
	case "", "youtube":
		return "youtube: short titles suitable for a YouTube description"
	default:
		return format
	}
}

func splitTitles(out string) []string {
	titles := []string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. )")
		line = strings.Trim(line, `"`)
		if line != "" {
			titles = append(titles, line)
		}
	}
	return titles
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", common.ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", common.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", common.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", common.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: read response: %v", common.ErrUpstream, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: status %d: decode response: %v", common.ErrUpstream, res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK {
		msg := http.StatusText(res.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: status %d: %s", common.ErrUpstream, res.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", common.ErrUpstream)
	}
	return parsed.Choices[0].Message.Content, nil
}
