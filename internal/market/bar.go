// Package market holds the daily bar table the rest of the pipeline works on.
package market

import (
	"sort"
	"strings"
	"time"
)

// Bar is one daily OHLCV row.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is the bar table for one symbol, ordered by date ascending.
type Series struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// NewSeries upper-cases the symbol and orders bars by date. Equal dates keep
// their input order.
func NewSeries(symbol string, bars []Bar) Series {
	out := make([]Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return Series{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Bars: out}
}

func (s Series) Len() int { return len(s.Bars) }

func (s Series) Closes() []float64 { return s.column(func(b Bar) float64 { return b.Close }) }

func (s Series) Highs() []float64 { return s.column(func(b Bar) float64 { return b.High }) }

func (s Series) Lows() []float64 { return s.column(func(b Bar) float64 { return b.Low }) }

func (s Series) Volumes() []float64 { return s.column(func(b Bar) float64 { return b.Volume }) }

func (s Series) column(f func(Bar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}
