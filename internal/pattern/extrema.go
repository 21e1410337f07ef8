package pattern

// FindPeaks returns every index whose value is strictly greater than all
// values within order bars on both sides. Indices closer than order to either
// end are never reported, and flat tops are not peaks.
func FindPeaks(values []float64, order int) []Extremum {
	return findExtrema(values, order, true)
}

// FindTroughs is the mirror of FindPeaks.
func FindTroughs(values []float64, order int) []Extremum {
	return findExtrema(values, order, false)
}

func findExtrema(values []float64, order int, peak bool) []Extremum {
	if order < 1 || len(values) < 2*order+1 {
		return nil
	}

	var out []Extremum
	for i := order; i < len(values)-order; i++ {
		ok := true
		for j := i - order; j <= i+order && ok; j++ {
			if j == i {
				continue
			}
			if peak {
				ok = values[i] > values[j]
			} else {
				ok = values[i] < values[j]
			}
		}
		if ok {
			out = append(out, Extremum{Index: i, Price: values[i], Peak: peak})
		}
	}
	return out
}

// between returns the most extreme point strictly inside (lo, hi): the highest
// for peaks, the lowest for troughs.
func between(points []Extremum, lo, hi int) (Extremum, bool) {
	var best Extremum
	found := false
	for _, p := range points {
		if p.Index <= lo || p.Index >= hi {
			continue
		}
		if !found || (p.Peak && p.Price > best.Price) || (!p.Peak && p.Price < best.Price) {
			best = p
			found = true
		}
	}
	return best, found
}
