package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiBackend translates through the Gemini API.
type GeminiBackend struct {
	client *genai.Client
}

func NewGeminiBackend(ctx context.Context, apiKey string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiBackend{client: client}, nil
}

func (g *GeminiBackend) Name() string { return "gemini" }

func (g *GeminiBackend) Metered() bool { return true }

func (g *GeminiBackend) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *GeminiBackend) Translate(ctx context.Context, text, targetLang string) (string, error) {
	langName := languageNames[targetLang]
	if langName == "" {
		langName = targetLang
	}

	model := g.client.GenerativeModel("gemini-1.5-flash")

	prompt := fmt.Sprintf(`Translate this news text to %s.
Do not translate proper names of brands or organizations.
Reply with the translation only, no comments, no labels.

%s`, langName, text)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == 429 || apiErr.Code >= 500) {
			return "", fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from gemini")
	}

	out := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return strings.TrimSpace(out), nil
}
