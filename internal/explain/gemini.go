package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"patternscope/internal/pattern"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiExplainer narrates patterns through Google's Gemini API.
type GeminiExplainer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	recent  int
}

func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, recent int) (*GeminiExplainer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	// the config default targets OpenAI
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultGeminiModel
	}
	return &GeminiExplainer{client: client, model: model, timeout: timeout, recent: recent}, nil
}

func (e *GeminiExplainer) Explain(ctx context.Context, symbol string, detections []pattern.Detection) (string, error) {
	if len(detections) == 0 {
		return "", errors.New("no detections to explain")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	system, user := BuildPrompt(detections, e.recent)
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content for %s: %w", symbol, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned no text for %s", symbol)
	}
	return text, nil
}
