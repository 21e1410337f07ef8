// Package scheduler runs the watchlist scan at startup and then every UTC midnight.
package scheduler

import (
	"context"
	"time"

	"patternscope/internal/analyzer"

	"go.uber.org/zap"
)

// Scanner is the part of analyzer.Analyzer the scheduler drives.
type Scanner interface {
	Scan(ctx context.Context, symbols []string, days int, explain bool, onResult func(analyzer.ScanResult)) []analyzer.ScanResult
}

// ReportSink receives every successful report.
type ReportSink interface {
	Add(r *analyzer.Report)
}

type DailyScanner struct {
	Load    func(ctx context.Context) <-chan string
	Scanner Scanner
	Reports ReportSink
	Days    int
	Explain bool
	Logger  *zap.Logger
}

// Start runs one scan immediately, then one at each UTC midnight until ctx is done.
func (d *DailyScanner) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.RunOnce(ctx)

		for {
			timer := time.NewTimer(time.Until(NextMidnight(time.Now())))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				d.RunOnce(ctx)
			}
		}
	}()
	return done
}

// RunOnce scans the currently loaded symbols and returns how many succeeded.
func (d *DailyScanner) RunOnce(ctx context.Context) int {
	var symbols []string
	for s := range d.Load(ctx) {
		symbols = append(symbols, s)
	}
	if len(symbols) == 0 {
		d.Logger.Info("watchlist empty, skipping scan")
		return 0
	}

	started := time.Now()
	ok := 0
	d.Scanner.Scan(ctx, symbols, d.Days, d.Explain, func(r analyzer.ScanResult) {
		if r.Err != nil || r.Report == nil {
			return
		}
		ok++
		if d.Reports != nil {
			d.Reports.Add(r.Report)
		}
	})

	d.Logger.Info("watchlist scan finished",
		zap.Int("symbols", len(symbols)),
		zap.Int("succeeded", ok),
		zap.Duration("took", time.Since(started)))
	return ok
}

// NextMidnight returns the first UTC midnight strictly after t.
func NextMidnight(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}
