// Package explain asks a chat model to narrate detected chart patterns.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"patternscope/config"
	"patternscope/internal/pattern"
)

// ErrNotConfigured is returned when no API key is available for the provider.
var ErrNotConfigured = errors.New("llm api key not configured")

const (
	SystemPrompt = "You are a financial analyst skilled at interpreting chart patterns."
	userPreamble = "Explain the potential meaning and implications of these recent chart patterns:"

	// DefaultRecent is how many of the latest detections go into the prompt.
	DefaultRecent = 3
)

// Explainer turns a symbol's detections into prose.
type Explainer interface {
	Explain(ctx context.Context, symbol string, detections []pattern.Detection) (string, error)
}

// BuildPrompt returns the system and user messages for the most recent
// detections, one "YYYY-MM-DD: Pattern" line each.
func BuildPrompt(detections []pattern.Detection, recent int) (system, user string) {
	lines := make([]string, 0, recent)
	for _, d := range pattern.Recent(detections, recent) {
		lines = append(lines, d.Label())
	}
	return SystemPrompt, userPreamble + "\n" + strings.Join(lines, "\n")
}

// New builds the explainer selected by cfg.Provider.
func New(cfg config.LLMConfig) (Explainer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	recent := cfg.Recent
	if recent <= 0 {
		recent = DefaultRecent
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout, recent), nil
	case "gemini", "google":
		return NewGemini(context.Background(), cfg.APIKey, cfg.Model, cfg.Timeout, recent)
	}
	return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
}
