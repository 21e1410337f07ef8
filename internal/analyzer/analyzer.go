// Package analyzer runs the fetch → detect → confirm → explain pipeline for
// one symbol or a list of symbols.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"patternscope/internal/market"
	"patternscope/internal/pattern"

	"go.uber.org/zap"
)

// BarSource fetches daily bars; implemented by polygon.RESTClient.
type BarSource interface {
	GetDailyBars(ctx context.Context, symbol string, window market.Window) (market.Series, error)
}

// BarCache is an optional read-through cache in front of BarSource.
type BarCache interface {
	Get(ctx context.Context, symbol string, w market.Window) (market.Series, bool, error)
	Set(ctx context.Context, s market.Series, w market.Window) error
}

// PatternStore is an optional sink for confirmed detections.
type PatternStore interface {
	SaveDetections(ctx context.Context, s market.Series, detections []pattern.Detection) (int, error)
}

// Explainer narrates detections; see package explain.
type Explainer interface {
	Explain(ctx context.Context, symbol string, detections []pattern.Detection) (string, error)
}

// ErrInvalidRequest marks caller mistakes such as an empty symbol.
var ErrInvalidRequest = errors.New("invalid request")

const NoPatternsMessage = "No chart patterns detected in this timeframe."

type Request struct {
	Symbol  string
	Days    int
	Explain bool
}

// Report is everything one analysis produced. ExplainError is set when the
// model call failed; the rest of the report is still valid.
type Report struct {
	Symbol         string              `json:"symbol"`
	Window         market.Window       `json:"window"`
	Series         market.Series       `json:"-"`
	Bars           int                 `json:"bars"`
	Detections     []pattern.Detection `json:"detections"`
	Interpretation string              `json:"interpretation,omitempty"`
	ExplainError   string              `json:"explain_error,omitempty"`
	Message        string              `json:"message,omitempty"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

type Analyzer struct {
	source    BarSource
	detector  *pattern.Detector
	explainer Explainer
	cache     BarCache
	store     PatternStore
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Analyzer)

func WithExplainer(e Explainer) Option { return func(a *Analyzer) { a.explainer = e } }

func WithCache(c BarCache) Option { return func(a *Analyzer) { a.cache = c } }

func WithStore(s PatternStore) Option { return func(a *Analyzer) { a.store = s } }

func WithClock(now func() time.Time) Option { return func(a *Analyzer) { a.now = now } }

func New(source BarSource, detector *pattern.Detector, logger *zap.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		source:   source,
		detector: detector,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CanExplain reports whether an LLM provider is wired in.
func (a *Analyzer) CanExplain() bool { return a.explainer != nil }

// Analyze runs the pipeline for one symbol. Fetch failures are returned as
// errors; explain and persistence failures are logged and recorded on the report.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	syms := market.NormalizeSymbols(req.Symbol)
	if len(syms) != 1 {
		return nil, fmt.Errorf("%w: expected one symbol, got %q", ErrInvalidRequest, req.Symbol)
	}
	symbol := syms[0]
	window := market.LookbackWindow(a.now(), req.Days)

	series, err := a.fetch(ctx, symbol, window)
	if err != nil {
		return nil, err
	}

	detections := a.detector.Detect(series)
	a.logger.Info("analyzed symbol",
		zap.String("symbol", symbol),
		zap.Int("bars", series.Len()),
		zap.Int("patterns", len(detections)))

	report := &Report{
		Symbol:      symbol,
		Window:      window,
		Series:      series,
		Bars:        series.Len(),
		Detections:  detections,
		GeneratedAt: a.now().UTC(),
	}
	if len(detections) == 0 {
		report.Message = NoPatternsMessage
	}

	if a.store != nil && len(detections) > 0 {
		if n, err := a.store.SaveDetections(ctx, series, detections); err != nil {
			a.logger.Warn("failed to persist detections", zap.String("symbol", symbol), zap.Error(err))
		} else {
			a.logger.Debug("persisted detections", zap.String("symbol", symbol), zap.Int("new", n))
		}
	}

	if req.Explain && len(detections) > 0 {
		a.explain(ctx, report)
	}

	return report, nil
}

func (a *Analyzer) explain(ctx context.Context, report *Report) {
	if a.explainer == nil {
		report.ExplainError = "llm not configured"
		return
	}
	text, err := a.explainer.Explain(ctx, report.Symbol, report.Detections)
	if err != nil {
		a.logger.Warn("failed to explain patterns", zap.String("symbol", report.Symbol), zap.Error(err))
		report.ExplainError = err.Error()
		return
	}
	report.Interpretation = text
}

func (a *Analyzer) fetch(ctx context.Context, symbol string, window market.Window) (market.Series, error) {
	if a.cache != nil {
		s, ok, err := a.cache.Get(ctx, symbol, window)
		switch {
		case err != nil:
			a.logger.Warn("bar cache read failed", zap.String("symbol", symbol), zap.Error(err))
		case ok:
			a.logger.Debug("bar cache hit", zap.String("symbol", symbol))
			return s, nil
		}
	}

	s, err := a.source.GetDailyBars(ctx, symbol, window)
	if err != nil {
		return market.Series{}, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, s, window); err != nil {
			a.logger.Warn("bar cache write failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return s, nil
}
