// Package pattern finds double bottom/top and (inverse) head-and-shoulders
// shapes in a daily close series and filters them on volume and
// support/resistance.
package pattern

import (
	"sort"

	"patternscope/internal/market"
)

type Detector struct {
	params Params
}

func NewDetector(p Params) *Detector {
	return &Detector{params: p}
}

func (d *Detector) Params() Params { return d.params }

// Detect runs every enabled pattern over the close series, applies Confirm,
// and returns the survivors ordered by completion bar.
func (d *Detector) Detect(s market.Series) []Detection {
	p := d.params
	if s.Len() < 2*p.Order+1 {
		return nil
	}

	closes := s.Closes()
	peaks := FindPeaks(closes, p.Order)
	troughs := FindTroughs(closes, p.Order)

	var found []Detection
	if p.enabled(DoubleBottom) {
		found = append(found, detectDoubleBottoms(peaks, troughs, p)...)
	}
	if p.enabled(DoubleTop) {
		found = append(found, detectDoubleTops(peaks, troughs, p)...)
	}
	if p.enabled(HeadAndShoulders) {
		found = append(found, detectHeadAndShoulders(peaks, troughs, p)...)
	}
	if p.enabled(InverseHeadShoulder) {
		found = append(found, detectInverseHeadAndShoulders(peaks, troughs, p)...)
	}

	for i := range found {
		found[i].Date = s.Bars[found[i].Index].Date
	}

	confirmed := Confirm(s, found, p)
	sort.SliceStable(confirmed, func(i, j int) bool {
		if confirmed[i].Index != confirmed[j].Index {
			return confirmed[i].Index < confirmed[j].Index
		}
		return kindRank(confirmed[i].Kind) < kindRank(confirmed[j].Kind)
	})
	return confirmed
}

func kindRank(k Kind) int {
	for i, kk := range AllKinds {
		if kk == k {
			return i
		}
	}
	return len(AllKinds)
}

// Recent returns the last n detections (all of them when n <= 0 or n exceeds the count).
func Recent(detections []Detection, n int) []Detection {
	if n <= 0 || n >= len(detections) {
		return detections
	}
	return detections[len(detections)-n:]
}
