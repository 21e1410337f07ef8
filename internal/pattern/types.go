package pattern

import (
	"fmt"
	"strings"
	"time"
)

// Kind names a chart pattern. The string form is what users and the LLM see.
type Kind string

const (
	DoubleBottom        Kind = "Double Bottom"
	DoubleTop           Kind = "Double Top"
	HeadAndShoulders    Kind = "Head and Shoulders"
	InverseHeadShoulder Kind = "Inverse Head and Shoulders"
)

// AllKinds lists every detector in evaluation order.
var AllKinds = []Kind{DoubleBottom, DoubleTop, HeadAndShoulders, InverseHeadShoulder}

// Bullish reports whether the pattern resolves upward off a support area.
func (k Kind) Bullish() bool {
	return k == DoubleBottom || k == InverseHeadShoulder
}

// ParseKind accepts the display name or a snake/kebab-case alias
// ("double_bottom", "head-and-shoulders", "inverse_hs").
func ParseKind(s string) (Kind, error) {
	norm := strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "double bottom":
		return DoubleBottom, nil
	case "double top":
		return DoubleTop, nil
	case "head and shoulders", "hs":
		return HeadAndShoulders, nil
	case "inverse head and shoulders", "inverse hs":
		return InverseHeadShoulder, nil
	}
	return "", fmt.Errorf("unknown pattern kind: %q", s)
}

// Extremum is a local peak or trough on the close series.
type Extremum struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
	Peak  bool    `json:"peak"`
}

// Detection is one pattern instance, dated at the bar that completes it.
type Detection struct {
	Kind     Kind       `json:"pattern"`
	Index    int        `json:"index"`
	Date     time.Time  `json:"date"`
	Points   []Extremum `json:"points"`
	Neckline float64    `json:"neckline"`

	VolumeConfirmed bool `json:"volume_confirmed"`
	LevelConfirmed  bool `json:"level_confirmed"`
}

// Label renders the "YYYY-MM-DD: Pattern" line used in tables and prompts.
func (d Detection) Label() string {
	return fmt.Sprintf("%s: %s", d.Date.Format(time.DateOnly), d.Kind)
}
