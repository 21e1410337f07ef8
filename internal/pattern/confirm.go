package pattern

import (
	"math"

	"patternscope/internal/market"

	talib "github.com/markcheno/go-talib"
)

// Confirm sets the volume and support/resistance flags on each detection and
// drops those failing a confirmation that p marks as required.
func Confirm(s market.Series, detections []Detection, p Params) []Detection {
	if len(detections) == 0 {
		return nil
	}

	volumes := s.Volumes()
	var volMA []float64
	if p.VolumeWindow > 0 && len(volumes) >= p.VolumeWindow {
		volMA = talib.Sma(volumes, p.VolumeWindow)
	}
	lows, highs := s.Lows(), s.Highs()

	out := make([]Detection, 0, len(detections))
	for _, d := range detections {
		d.VolumeConfirmed = volumeConfirmed(volumes, volMA, d.Index, p)
		d.LevelConfirmed = levelConfirmed(lows, highs, d, p)

		if p.RequireVolume && !d.VolumeConfirmed {
			continue
		}
		if p.RequireLevel && !d.LevelConfirmed {
			continue
		}
		out = append(out, d)
	}
	return out
}

// volumeConfirmed is true when the detection bar trades at least
// VolumeFactor times its trailing average. Without enough history to fill
// the average the detection stays unconfirmed.
func volumeConfirmed(volumes, volMA []float64, idx int, p Params) bool {
	if p.VolumeWindow == 0 {
		return true
	}
	if volMA == nil || idx < p.VolumeWindow-1 || idx >= len(volMA) {
		return false
	}
	avg := volMA[idx]
	if avg <= 0 {
		return false
	}
	return volumes[idx] >= p.VolumeFactor*avg
}

// levelConfirmed checks that the pattern's extreme sits on the rolling
// support (bullish kinds, lows) or resistance (bearish kinds, highs) of the
// LevelWindow bars ending at the detection.
func levelConfirmed(lows, highs []float64, d Detection, p Params) bool {
	if p.LevelWindow == 0 {
		return true
	}
	if d.Index >= len(lows) {
		return false
	}
	start := d.Index - p.LevelWindow + 1
	if start < 0 {
		start = 0
	}

	if d.Kind.Bullish() {
		extreme := math.Inf(1)
		for _, pt := range d.Points {
			if !pt.Peak {
				extreme = math.Min(extreme, lows[pt.Index])
			}
		}
		support := minOf(lows[start : d.Index+1])
		if support <= 0 || math.IsInf(extreme, 1) {
			return false
		}
		return (extreme-support)/support <= p.LevelTolerance
	}

	extreme := math.Inf(-1)
	for _, pt := range d.Points {
		if pt.Peak {
			extreme = math.Max(extreme, highs[pt.Index])
		}
	}
	resistance := maxOf(highs[start : d.Index+1])
	if resistance <= 0 || math.IsInf(extreme, -1) {
		return false
	}
	return (resistance-extreme)/resistance <= p.LevelTolerance
}

func minOf(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}
