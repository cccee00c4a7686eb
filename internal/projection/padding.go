package projection

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfiguration is returned for padding or bounds settings that would
// produce a degenerate or mirrored projection.
var ErrConfiguration = errors.New("invalid projection configuration")

// Padding is the fraction of each canvas edge kept as margin before the
// drawable area begins.
type Padding struct {
	Top    float64 `json:"top" yaml:"top" mapstructure:"top" minimum:"0" exclusiveMaximum:"1"`
	Bottom float64 `json:"bottom" yaml:"bottom" mapstructure:"bottom" minimum:"0" exclusiveMaximum:"1"`
	Left   float64 `json:"left" yaml:"left" mapstructure:"left" minimum:"0" exclusiveMaximum:"1"`
	Right  float64 `json:"right" yaml:"right" mapstructure:"right" minimum:"0" exclusiveMaximum:"1"`
}

// Validate checks the per-field range and that both axes keep a positive
// usable extent.
func (p Padding) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"top", p.Top}, {"bottom", p.Bottom}, {"left", p.Left}, {"right", p.Right},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || f.v < 0 || f.v >= 1 {
			return fmt.Errorf("%w: padding %s=%v outside [0,1)", ErrConfiguration, f.name, f.v)
		}
	}
	if p.Left+p.Right >= 1 {
		return fmt.Errorf("%w: left+right=%v leaves no usable width", ErrConfiguration, p.Left+p.Right)
	}
	if p.Top+p.Bottom >= 1 {
		return fmt.Errorf("%w: top+bottom=%v leaves no usable height", ErrConfiguration, p.Top+p.Bottom)
	}
	return nil
}

// Override nudges individual padding fields for one label. Nil fields keep
// the default value.
type Override struct {
	Top    *float64 `json:"top,omitempty" yaml:"top,omitempty" mapstructure:"top"`
	Bottom *float64 `json:"bottom,omitempty" yaml:"bottom,omitempty" mapstructure:"bottom"`
	Left   *float64 `json:"left,omitempty" yaml:"left,omitempty" mapstructure:"left"`
	Right  *float64 `json:"right,omitempty" yaml:"right,omitempty" mapstructure:"right"`
}

// Merge returns base with every field set in o replaced.
func (o Override) Merge(base Padding) Padding {
	if o.Top != nil {
		base.Top = *o.Top
	}
	if o.Bottom != nil {
		base.Bottom = *o.Bottom
	}
	if o.Left != nil {
		base.Left = *o.Left
	}
	if o.Right != nil {
		base.Right = *o.Right
	}
	return base
}

// Float is a small helper for building overrides in code.
func Float(v float64) *float64 {
	return &v
}
