package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"patternscope/internal/analyzer"
	"patternscope/internal/market"
	"patternscope/internal/pattern"

	"github.com/stretchr/testify/assert"
)

func TestPrintReport(t *testing.T) {
	w := market.Window{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC),
	}
	r := &analyzer.Report{
		Symbol: "AAPL",
		Window: w,
		Bars:   62,
		Detections: []pattern.Detection{
			{Kind: pattern.DoubleBottom, Date: time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC), VolumeConfirmed: true},
			{Kind: pattern.HeadAndShoulders, Date: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)},
		},
		Interpretation: "Bullish reversal, then a possible top.",
	}

	var buf bytes.Buffer
	printReport(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "AAPL  2024-03-01 → 2024-05-30  (62 bars)")
	assert.Contains(t, out, "Date")
	assert.Contains(t, out, "2024-04-19  Double Bottom")
	assert.Contains(t, out, "2024-05-20  Head and Shoulders")
	assert.Contains(t, out, "Bullish reversal, then a possible top.")
}

func TestPrintReportNoPatterns(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &analyzer.Report{Symbol: "MSFT", Message: analyzer.NoPatternsMessage})
	assert.Contains(t, buf.String(), analyzer.NoPatternsMessage)
	assert.NotContains(t, buf.String(), "Pattern")
}

func TestPrintReportExplainError(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &analyzer.Report{
		Symbol:       "NVDA",
		Detections:   []pattern.Detection{{Kind: pattern.InverseHeadShoulder}},
		ExplainError: "rate limited",
	})
	assert.Contains(t, buf.String(), "interpretation unavailable: rate limited")
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["analyze"])
	assert.True(t, names["prune"])

	analyze, _, err := root.Find([]string{"analyze"})
	assert.NoError(t, err)
	assert.NotNil(t, analyze.Flags().Lookup("chart"))
	assert.NotNil(t, analyze.Flags().Lookup("explain"))
}

func TestWaitFor(t *testing.T) {
	assert.True(t, waitFor(context.Background(), nil))

	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(done)
	}()
	assert.True(t, waitFor(context.Background(), done))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, waitFor(ctx, make(chan struct{})))
}
