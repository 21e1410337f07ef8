package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"patternscope/internal/market"
	"patternscope/internal/pattern"
	"patternscope/pkg/polygon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var doubleBottomCloses = []float64{110, 105, 100, 105, 110, 115, 110, 105, 101, 106, 112}

func seriesOf(symbol string, closes []float64) market.Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 100}
	}
	return market.NewSeries(symbol, bars)
}

type fakeSource struct {
	series map[string]market.Series
	errs   map[string]error
	calls  []string
	window market.Window
}

func (f *fakeSource) GetDailyBars(_ context.Context, symbol string, w market.Window) (market.Series, error) {
	f.calls = append(f.calls, symbol)
	f.window = w
	if err, ok := f.errs[symbol]; ok {
		return market.Series{}, err
	}
	return f.series[symbol], nil
}

type fakeCache struct {
	data    map[string]market.Series
	getErr  error
	setCall int
}

func (c *fakeCache) Get(_ context.Context, symbol string, _ market.Window) (market.Series, bool, error) {
	if c.getErr != nil {
		return market.Series{}, false, c.getErr
	}
	s, ok := c.data[symbol]
	return s, ok, nil
}

func (c *fakeCache) Set(_ context.Context, s market.Series, _ market.Window) error {
	c.setCall++
	c.data[s.Symbol] = s
	return nil
}

type fakeStore struct {
	saved []pattern.Detection
	err   error
}

func (s *fakeStore) SaveDetections(_ context.Context, _ market.Series, ds []pattern.Detection) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.saved = append(s.saved, ds...)
	return len(ds), nil
}

type fakeExplainer struct {
	text  string
	err   error
	calls int
}

func (e *fakeExplainer) Explain(_ context.Context, _ string, _ []pattern.Detection) (string, error) {
	e.calls++
	return e.text, e.err
}

func shapeDetector() *pattern.Detector {
	return pattern.NewDetector(pattern.Params{Order: 2, Tolerance: 0.03, MinDepth: 0.03, MinSeparation: 3})
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer(src BarSource, opts ...Option) *Analyzer {
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return New(src, shapeDetector(), zap.NewNop(), opts...)
}

// go test -v --run TestAnalyzeDetectsAndExplains
func TestAnalyzeDetectsAndExplains(t *testing.T) {
	src := &fakeSource{series: map[string]market.Series{"AAPL": seriesOf("AAPL", doubleBottomCloses)}}
	exp := &fakeExplainer{text: "bullish reversal"}
	store := &fakeStore{}
	a := newTestAnalyzer(src, WithExplainer(exp), WithStore(store))

	report, err := a.Analyze(context.Background(), Request{Symbol: " aapl ", Days: 90, Explain: true})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", report.Symbol)
	assert.Equal(t, []string{"AAPL"}, src.calls)
	assert.Equal(t, fixedNow.AddDate(0, 0, -90).Format(time.DateOnly), src.window.From())
	require.Len(t, report.Detections, 1)
	assert.Equal(t, pattern.DoubleBottom, report.Detections[0].Kind)
	assert.Equal(t, "bullish reversal", report.Interpretation)
	assert.Empty(t, report.ExplainError)
	assert.Empty(t, report.Message)
	assert.Equal(t, 11, report.Bars)
	assert.Len(t, store.saved, 1)
	assert.True(t, a.CanExplain())
}

// go test -v --run TestAnalyzeNoPatternsSkipsExplain
func TestAnalyzeNoPatternsSkipsExplain(t *testing.T) {
	flat := seriesOf("MSFT", []float64{100, 100, 100, 100, 100, 100, 100, 100})
	src := &fakeSource{series: map[string]market.Series{"MSFT": flat}}
	exp := &fakeExplainer{text: "unused"}
	store := &fakeStore{}
	a := newTestAnalyzer(src, WithExplainer(exp), WithStore(store))

	report, err := a.Analyze(context.Background(), Request{Symbol: "MSFT", Explain: true})
	require.NoError(t, err)

	assert.Empty(t, report.Detections)
	assert.Equal(t, NoPatternsMessage, report.Message)
	assert.Zero(t, exp.calls)
	assert.Empty(t, store.saved)
}

// go test -v --run TestAnalyzeExplainFailureKeepsReport
func TestAnalyzeExplainFailureKeepsReport(t *testing.T) {
	src := &fakeSource{series: map[string]market.Series{"AAPL": seriesOf("AAPL", doubleBottomCloses)}}
	exp := &fakeExplainer{err: errors.New("rate limited")}
	a := newTestAnalyzer(src, WithExplainer(exp), WithStore(&fakeStore{err: errors.New("db down")}))

	report, err := a.Analyze(context.Background(), Request{Symbol: "AAPL", Explain: true})
	require.NoError(t, err)

	assert.Len(t, report.Detections, 1)
	assert.Empty(t, report.Interpretation)
	assert.Equal(t, "rate limited", report.ExplainError)
}

// go test -v --run TestAnalyzeExplainWithoutProvider
func TestAnalyzeExplainWithoutProvider(t *testing.T) {
	src := &fakeSource{series: map[string]market.Series{"AAPL": seriesOf("AAPL", doubleBottomCloses)}}
	a := newTestAnalyzer(src)

	report, err := a.Analyze(context.Background(), Request{Symbol: "AAPL", Explain: true})
	require.NoError(t, err)
	assert.False(t, a.CanExplain())
	assert.NotEmpty(t, report.ExplainError)

	report, err = a.Analyze(context.Background(), Request{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Empty(t, report.ExplainError)
}

// go test -v --run TestAnalyzeInvalidSymbol
func TestAnalyzeInvalidSymbol(t *testing.T) {
	a := newTestAnalyzer(&fakeSource{})

	for _, sym := range []string{"", "   ", "AAPL,MSFT"} {
		_, err := a.Analyze(context.Background(), Request{Symbol: sym})
		assert.ErrorIs(t, err, ErrInvalidRequest, sym)
	}
}

// go test -v --run TestAnalyzeFetchError
func TestAnalyzeFetchError(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"ZZZZ": polygon.ErrNoData}}
	a := newTestAnalyzer(src)

	_, err := a.Analyze(context.Background(), Request{Symbol: "ZZZZ"})
	assert.ErrorIs(t, err, polygon.ErrNoData)
}

// go test -v --run TestAnalyzeUsesCache
func TestAnalyzeUsesCache(t *testing.T) {
	src := &fakeSource{series: map[string]market.Series{"AAPL": seriesOf("AAPL", doubleBottomCloses)}}
	cache := &fakeCache{data: map[string]market.Series{}}
	a := newTestAnalyzer(src, WithCache(cache))

	_, err := a.Analyze(context.Background(), Request{Symbol: "AAPL"})
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), Request{Symbol: "AAPL"})
	require.NoError(t, err)

	assert.Len(t, src.calls, 1)
	assert.Equal(t, 1, cache.setCall)
}

// go test -v --run TestAnalyzeCacheErrorFallsBack
func TestAnalyzeCacheErrorFallsBack(t *testing.T) {
	src := &fakeSource{series: map[string]market.Series{"AAPL": seriesOf("AAPL", doubleBottomCloses)}}
	cache := &fakeCache{data: map[string]market.Series{}, getErr: errors.New("redis down")}
	a := newTestAnalyzer(src, WithCache(cache))

	report, err := a.Analyze(context.Background(), Request{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Len(t, report.Detections, 1)
	assert.Len(t, src.calls, 1)
}

// go test -v --run TestScanContinuesPastFailures
func TestScanContinuesPastFailures(t *testing.T) {
	src := &fakeSource{
		series: map[string]market.Series{
			"AAPL": seriesOf("AAPL", doubleBottomCloses),
			"NVDA": seriesOf("NVDA", doubleBottomCloses),
		},
		errs: map[string]error{"BAD": errors.New("boom")},
	}
	a := newTestAnalyzer(src)

	var streamed []string
	results := a.Scan(context.Background(), []string{"AAPL", "BAD", "NVDA"}, 90, false, func(r ScanResult) {
		streamed = append(streamed, r.Symbol)
	})

	require.Len(t, results, 3)
	assert.Equal(t, []string{"AAPL", "BAD", "NVDA"}, streamed)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Equal(t, "boom", results[1].Error)
	assert.Nil(t, results[1].Report)
	require.NotNil(t, results[2].Report)
	assert.Len(t, results[2].Report.Detections, 1)
}

// go test -v --run TestScanStopsOnCancel
func TestScanStopsOnCancel(t *testing.T) {
	src := &fakeSource{series: map[string]market.Series{
		"AAPL": seriesOf("AAPL", doubleBottomCloses),
		"MSFT": seriesOf("MSFT", doubleBottomCloses),
	}}
	a := newTestAnalyzer(src)

	ctx, cancel := context.WithCancel(context.Background())
	results := a.Scan(ctx, []string{"AAPL", "MSFT"}, 90, false, func(ScanResult) { cancel() })

	assert.Len(t, results, 1)
	assert.Equal(t, []string{"AAPL"}, src.calls)
}
