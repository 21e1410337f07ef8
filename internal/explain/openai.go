package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"patternscope/internal/pattern"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIExplainer narrates patterns through the chat completions API.
type OpenAIExplainer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	recent  int
}

func NewOpenAI(apiKey, model, baseURL string, timeout time.Duration, recent int) *OpenAIExplainer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = openai.GPT4
	}
	return &OpenAIExplainer{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		recent:  recent,
	}
}

func (e *OpenAIExplainer) Explain(ctx context.Context, symbol string, detections []pattern.Detection) (string, error) {
	if len(detections) == 0 {
		return "", errors.New("no detections to explain")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	system, user := BuildPrompt(detections, e.recent)
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion for %s: %w", symbol, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices for %s", symbol)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
