package chart

import (
	"bytes"
	"testing"
	"time"

	"patternscope/internal/market"
	"patternscope/internal/pattern"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() market.Series {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 10)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = market.Bar{Date: start.AddDate(0, 0, i), Open: c - 1, High: c + 2, Low: c - 2, Close: c, Volume: 1000}
	}
	return market.NewSeries("MSFT", bars)
}

// go test -v --run TestRenderCandles
func TestRenderCandles(t *testing.T) {
	s := sampleSeries()
	detections := []pattern.Detection{
		{Kind: pattern.DoubleBottom, Index: 4, Date: s.Bars[4].Date},
		{Kind: pattern.HeadAndShoulders, Index: 8, Date: s.Bars[8].Date},
		{Kind: pattern.DoubleTop, Index: 42}, // out of range, skipped
	}

	var buf bytes.Buffer
	require.NoError(t, RenderCandles(&buf, s, detections))

	html := buf.String()
	assert.Contains(t, html, "MSFT Price Chart")
	assert.Contains(t, html, "Double Bottom")
	assert.Contains(t, html, "Head and Shoulders")
	assert.NotContains(t, html, "Double Top")
	assert.Contains(t, html, "2024-02-05")
}

// go test -v --run TestMarkPoints
func TestMarkPoints(t *testing.T) {
	s := sampleSeries()
	points := markPoints(s, []pattern.Detection{
		{Kind: pattern.DoubleBottom, Index: 1},
		{Kind: pattern.HeadAndShoulders, Index: 2},
		{Kind: pattern.InverseHeadShoulder, Index: -1},
	})

	require.Len(t, points, 2)
	assert.Equal(t, s.Bars[1].Low, points[0].Coordinate[1])
	assert.Equal(t, s.Bars[2].High, points[1].Coordinate[1])
	assert.Equal(t, "2024-02-03", points[1].Coordinate[0])
}
