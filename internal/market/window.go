package market

import (
	"strings"
	"time"
	"unicode"
)

const (
	MinDays     = 30
	MaxDays     = 365
	DefaultDays = 90
)

// Window is an inclusive calendar date range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ClampDays maps a requested lookback onto [MinDays, MaxDays]; zero or
// negative values fall back to DefaultDays.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days < MinDays:
		return MinDays
	case days > MaxDays:
		return MaxDays
	}
	return days
}

// LookbackWindow returns the date range ending at now and reaching back the
// clamped number of days.
func LookbackWindow(now time.Time, days int) Window {
	end := truncateDay(now.UTC())
	return Window{Start: end.AddDate(0, 0, -ClampDays(days)), End: end}
}

// From and To format the window bounds the way aggregate endpoints expect.
func (w Window) From() string { return w.Start.Format(time.DateOnly) }

func (w Window) To() string { return w.End.Format(time.DateOnly) }

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeSymbols splits a comma or whitespace separated ticker list,
// upper-cases each entry and drops blanks and duplicates, keeping first-seen order.
func NormalizeSymbols(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})

	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		sym := strings.ToUpper(strings.TrimSpace(f))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}
