package pattern

import "math"

// detectDoubleBottoms pairs consecutive troughs of similar depth separated by
// a peak that rises at least MinDepth above the higher of the two.
func detectDoubleBottoms(peaks, troughs []Extremum, p Params) []Detection {
	var out []Detection
	for i := 0; i+1 < len(troughs); i++ {
		first, second := troughs[i], troughs[i+1]
		if !pairMatches(first, second, p) {
			continue
		}

		neck, ok := between(peaks, first.Index, second.Index)
		if !ok {
			continue
		}
		floor := math.Max(first.Price, second.Price)
		if (neck.Price-floor)/floor < p.MinDepth {
			continue
		}

		out = append(out, Detection{
			Kind:     DoubleBottom,
			Index:    second.Index,
			Points:   []Extremum{first, neck, second},
			Neckline: neck.Price,
		})
	}
	return out
}

// detectDoubleTops mirrors detectDoubleBottoms on peaks.
func detectDoubleTops(peaks, troughs []Extremum, p Params) []Detection {
	var out []Detection
	for i := 0; i+1 < len(peaks); i++ {
		first, second := peaks[i], peaks[i+1]
		if !pairMatches(first, second, p) {
			continue
		}

		neck, ok := between(troughs, first.Index, second.Index)
		if !ok || neck.Price <= 0 {
			continue
		}
		ceiling := math.Min(first.Price, second.Price)
		if (ceiling-neck.Price)/ceiling < p.MinDepth {
			continue
		}

		out = append(out, Detection{
			Kind:     DoubleTop,
			Index:    second.Index,
			Points:   []Extremum{first, neck, second},
			Neckline: neck.Price,
		})
	}
	return out
}

// pairMatches applies the separation and symmetry tests shared by both
// double patterns: |a-b| / min(a,b) <= Tolerance.
func pairMatches(a, b Extremum, p Params) bool {
	if a.Price <= 0 || b.Price <= 0 {
		return false
	}
	if b.Index-a.Index < p.MinSeparation {
		return false
	}
	return math.Abs(a.Price-b.Price)/math.Min(a.Price, b.Price) <= p.Tolerance
}
