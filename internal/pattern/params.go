package pattern

import (
	"errors"
	"fmt"

	"patternscope/config"
)

// Params holds the detector thresholds. Ratios are fractions, not percents.
type Params struct {
	Order         int     // bars on each side an extremum must dominate
	Tolerance     float64 // max relative gap between the paired bottoms/tops or shoulders
	MinDepth      float64 // min relative height of the neckline swing or head
	MinSeparation int     // min bars between consecutive pattern points

	VolumeWindow   int     // SMA length for the volume filter; 0 disables it
	VolumeFactor   float64 // detection bar volume must reach factor * SMA
	LevelWindow    int     // lookback for the support/resistance level; 0 disables it
	LevelTolerance float64 // max relative distance from that level
	RequireVolume  bool
	RequireLevel   bool

	Kinds []Kind // empty means AllKinds
}

func DefaultParams() Params {
	return Params{
		Order:          5,
		Tolerance:      0.03,
		MinDepth:       0.03,
		MinSeparation:  5,
		VolumeWindow:   20,
		VolumeFactor:   1.0,
		LevelWindow:    60,
		LevelTolerance: 0.02,
		RequireVolume:  true,
		RequireLevel:   false,
	}
}

func (p Params) Validate() error {
	var errs []error
	if p.Order < 1 {
		errs = append(errs, fmt.Errorf("order must be >= 1, got %d", p.Order))
	}
	if p.Tolerance < 0 || p.MinDepth < 0 || p.LevelTolerance < 0 || p.VolumeFactor < 0 {
		errs = append(errs, errors.New("ratios must be non-negative"))
	}
	if p.MinSeparation < 0 || p.VolumeWindow < 0 || p.LevelWindow < 0 {
		errs = append(errs, errors.New("windows must be non-negative"))
	}
	return errors.Join(errs...)
}

func (p Params) enabled(k Kind) bool {
	if len(p.Kinds) == 0 {
		return true
	}
	for _, want := range p.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// ParamsFromConfig maps the pattern section of the config file onto Params.
func ParamsFromConfig(c config.PatternConfig) (Params, error) {
	p := Params{
		Order:          c.Order,
		Tolerance:      c.Tolerance,
		MinDepth:       c.MinDepth,
		MinSeparation:  c.MinSeparation,
		VolumeWindow:   c.VolumeWindow,
		VolumeFactor:   c.VolumeFactor,
		LevelWindow:    c.LevelWindow,
		LevelTolerance: c.LevelTolerance,
		RequireVolume:  c.RequireVolume,
		RequireLevel:   c.RequireLevel,
	}
	for _, s := range c.Kinds {
		k, err := ParseKind(s)
		if err != nil {
			return Params{}, err
		}
		p.Kinds = append(p.Kinds, k)
	}
	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid pattern config: %w", err)
	}
	return p, nil
}
