package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"patternscope/internal/analyzer"
	"patternscope/internal/memorystore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScanner struct {
	calls   [][]string
	days    int
	explain bool
}

func (f *fakeScanner) Scan(_ context.Context, symbols []string, days int, explain bool, onResult func(analyzer.ScanResult)) []analyzer.ScanResult {
	f.calls = append(f.calls, symbols)
	f.days, f.explain = days, explain
	var out []analyzer.ScanResult
	for _, s := range symbols {
		r := analyzer.ScanResult{Symbol: s, Report: &analyzer.Report{Symbol: s}}
		if s == "BAD" {
			r = analyzer.ScanResult{Symbol: s, Err: errors.New("boom")}
		}
		out = append(out, r)
		onResult(r)
	}
	return out
}

func newTestScanner(symbols ...string) (*DailyScanner, *fakeScanner, *memorystore.MemoryReportStore) {
	log := zap.NewNop()
	loader := &WatchlistLoader{Symbols: memorystore.NewSymbolStore(symbols...), Logger: log}
	fs := &fakeScanner{}
	reports := memorystore.NewReportStore(0)
	return &DailyScanner{
		Load:    DefaultLoadFn(loader),
		Scanner: fs,
		Reports: reports,
		Days:    120,
		Explain: true,
		Logger:  log,
	}, fs, reports
}

// go test -v --run TestRunOnce
func TestRunOnce(t *testing.T) {
	d, fs, reports := newTestScanner("AAPL", "BAD", "NVDA")

	ok := d.RunOnce(context.Background())

	assert.Equal(t, 2, ok)
	require.Len(t, fs.calls, 1)
	assert.Equal(t, []string{"AAPL", "BAD", "NVDA"}, fs.calls[0])
	assert.Equal(t, 120, fs.days)
	assert.True(t, fs.explain)
	assert.Equal(t, 2, reports.CountAll())
	_, found := reports.Latest("BAD")
	assert.False(t, found)
}

// go test -v --run TestRunOnceEmptyWatchlist
func TestRunOnceEmptyWatchlist(t *testing.T) {
	d, fs, _ := newTestScanner()

	assert.Zero(t, d.RunOnce(context.Background()))
	assert.Empty(t, fs.calls)
}

// go test -v --run TestStartRunsImmediatelyAndStops
func TestStartRunsImmediatelyAndStops(t *testing.T) {
	d, _, reports := newTestScanner("AAPL")

	ctx, cancel := context.WithCancel(context.Background())
	done := d.Start(ctx)

	require.Eventually(t, func() bool { return reports.CountAll() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

// go test -v --run TestNextMidnight
func TestNextMidnight(t *testing.T) {
	at := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), NextMidnight(at))

	midnight := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), NextMidnight(midnight))

	est := time.Date(2024, 5, 10, 22, 0, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), NextMidnight(est))
}
