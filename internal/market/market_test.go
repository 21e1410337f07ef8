package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

// go test -v --run TestNewSeriesSortsByDate
func TestNewSeriesSortsByDate(t *testing.T) {
	in := []Bar{
		{Date: day(3), Close: 3},
		{Date: day(1), Close: 1},
		{Date: day(2), Close: 2},
	}
	s := NewSeries(" aapl ", in)

	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
	assert.Equal(t, 3, s.Len())
	// input is not mutated
	assert.Equal(t, float64(3), in[0].Close)
}

// go test -v --run TestClampDays
func TestClampDays(t *testing.T) {
	cases := map[int]int{0: 90, -5: 90, 10: 30, 30: 30, 120: 120, 365: 365, 1000: 365}
	for in, want := range cases {
		assert.Equal(t, want, ClampDays(in), "days=%d", in)
	}
}

// go test -v --run TestLookbackWindow
func TestLookbackWindow(t *testing.T) {
	now := time.Date(2024, 6, 30, 15, 4, 5, 0, time.UTC)
	w := LookbackWindow(now, 90)

	assert.Equal(t, "2024-06-30", w.To())
	assert.Equal(t, "2024-04-01", w.From())
}

// go test -v --run TestNormalizeSymbols
func TestNormalizeSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, NormalizeSymbols("aapl, msft;nvda  aapl ,,"))
	assert.Empty(t, NormalizeSymbols("  , "))
}
