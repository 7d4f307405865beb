package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleBackend uses the public Google Translate endpoint. Free and keyless,
// which is why it sits first in the default chain.
type GoogleBackend struct {
	client *http.Client
}

func NewGoogleBackend(timeout time.Duration) *GoogleBackend {
	return &GoogleBackend{client: &http.Client{Timeout: timeout}}
}

func (g *GoogleBackend) Name() string { return "google" }

func (g *GoogleBackend) Metered() bool { return false }

func (g *GoogleBackend) Translate(ctx context.Context, text, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrTransient, err)
	}

	return parseGoogleResponse(body)
}

// parseGoogleResponse unpacks the endpoint's nested-array payload: the
// first element is a list of [translatedChunk, originalChunk, ...] tuples.
func parseGoogleResponse(body []byte) (string, error) {
	var response []any
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(response) == 0 {
		return "", errors.New("empty response from google translate")
	}

	chunks, ok := response[0].([]any)
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, chunk := range chunks {
		tuple, ok := chunk.([]any)
		if !ok || len(tuple) == 0 {
			continue
		}
		if translated, ok := tuple[0].(string); ok {
			result.WriteString(translated)
		}
	}
	return result.String(), nil
}
