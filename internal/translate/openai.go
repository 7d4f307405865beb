package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// languageNames maps target codes to names the model understands better
// than bare ISO codes.
var languageNames = map[string]string{
	"uz": "Uzbek",
	"ru": "Russian",
	"uk": "Ukrainian",
	"en": "English",
	"de": "German",
	"es": "Spanish",
	"fr": "French",
	"tr": "Turkish",
}

// OpenAIBackend translates through the chat completion API.
type OpenAIBackend struct {
	client *openai.Client
}

func NewOpenAIBackend(apiKey string) *OpenAIBackend {
	return &OpenAIBackend{client: openai.NewClient(apiKey)}
}

func (o *OpenAIBackend) Name() string { return "openai" }

func (o *OpenAIBackend) Metered() bool { return true }

func (o *OpenAIBackend) Translate(ctx context.Context, text, targetLang string) (string, error) {
	langName := languageNames[targetLang]
	if langName == "" {
		langName = targetLang
	}

	prompt := fmt.Sprintf(`Translate the following news text to %s.
Keep the meaning, tone and journalistic style of the original.
Translate only the text itself, without additional comments or disclaimers.

Text to translate:
%s`, langName, text)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: 2000,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500) {
			return "", fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from openai")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
