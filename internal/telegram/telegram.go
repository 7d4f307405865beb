// Package telegram is the thin Bot API binding used to deliver posts to
// the destination channel. It reports each send's message id and
// classifies failures so the publisher can decide what to retry.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// ErrTransient marks failures worth retrying with backoff: rate limits,
// server-side errors, network hiccups.
var ErrTransient = errors.New("transient telegram error")

// Client talks to one bot token / one destination chat.
type Client struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func New(token, chatID string) *Client {
	return &Client{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL points the client at a different API host. Tests use it
// with httptest servers.
func NewWithBaseURL(token, chatID, baseURL string) *Client {
	c := New(token, chatID)
	c.baseURL = baseURL
	return c
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

// SendMessage posts an HTML text message and returns its message id.
func (c *Client) SendMessage(ctx context.Context, text string) (int, error) {
	payload := map[string]any{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	return c.call(ctx, "sendMessage", payload)
}

// SendPhoto posts a photo by URL with an HTML caption and returns the
// message id.
func (c *Client) SendPhoto(ctx context.Context, photoURL, caption string) (int, error) {
	payload := map[string]any{
		"chat_id":    c.chatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	return c.call(ctx, "sendPhoto", payload)
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", ErrTransient, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return 0, fmt.Errorf("%w: %s status %d", ErrTransient, method, resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("parse %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK || !parsed.OK {
		return 0, fmt.Errorf("telegram %s failed: status %d: %s", method, resp.StatusCode, parsed.Description)
	}

	return parsed.Result.MessageID, nil
}
