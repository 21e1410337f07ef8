package pattern

import "math"

// detectHeadAndShoulders scans runs of three consecutive peaks where the
// middle one stands MinDepth above two shoulders of similar height, with a
// trough on each side of the head forming the neckline.
func detectHeadAndShoulders(peaks, troughs []Extremum, p Params) []Detection {
	var out []Detection
	for i := 0; i+2 < len(peaks); i++ {
		left, head, right := peaks[i], peaks[i+1], peaks[i+2]
		if !shouldersMatch(left, head, right, p) {
			continue
		}
		if head.Price <= left.Price || head.Price <= right.Price {
			continue
		}
		higher := math.Max(left.Price, right.Price)
		if (head.Price-higher)/higher < p.MinDepth {
			continue
		}

		t1, ok1 := between(troughs, left.Index, head.Index)
		t2, ok2 := between(troughs, head.Index, right.Index)
		if !ok1 || !ok2 {
			continue
		}

		out = append(out, Detection{
			Kind:     HeadAndShoulders,
			Index:    right.Index,
			Points:   []Extremum{left, t1, head, t2, right},
			Neckline: (t1.Price + t2.Price) / 2,
		})
	}
	return out
}

// detectInverseHeadAndShoulders mirrors detectHeadAndShoulders on troughs.
func detectInverseHeadAndShoulders(peaks, troughs []Extremum, p Params) []Detection {
	var out []Detection
	for i := 0; i+2 < len(troughs); i++ {
		left, head, right := troughs[i], troughs[i+1], troughs[i+2]
		if !shouldersMatch(left, head, right, p) {
			continue
		}
		if head.Price >= left.Price || head.Price >= right.Price {
			continue
		}
		lower := math.Min(left.Price, right.Price)
		if (lower-head.Price)/lower < p.MinDepth {
			continue
		}

		p1, ok1 := between(peaks, left.Index, head.Index)
		p2, ok2 := between(peaks, head.Index, right.Index)
		if !ok1 || !ok2 {
			continue
		}

		out = append(out, Detection{
			Kind:     InverseHeadShoulder,
			Index:    right.Index,
			Points:   []Extremum{left, p1, head, p2, right},
			Neckline: (p1.Price + p2.Price) / 2,
		})
	}
	return out
}

// shouldersMatch checks spacing and |left-right| / max(left,right) <= Tolerance.
func shouldersMatch(left, head, right Extremum, p Params) bool {
	if left.Price <= 0 || head.Price <= 0 || right.Price <= 0 {
		return false
	}
	if head.Index-left.Index < p.MinSeparation || right.Index-head.Index < p.MinSeparation {
		return false
	}
	return math.Abs(left.Price-right.Price)/math.Max(left.Price, right.Price) <= p.Tolerance
}
