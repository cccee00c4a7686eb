// Package projection maps geographic coordinates onto the logical canvas of
// the track image.
package projection

import (
	"fmt"
	"maps"
	"slices"

	"github.com/amanmaurya7/f1-map/internal/geo"
)

// PixelPosition is a point in logical canvas units.
type PixelPosition struct {
	X float64 `json:"x" yaml:"x" doc:"Horizontal offset from the left canvas edge"`
	Y float64 `json:"y" yaml:"y" doc:"Vertical offset from the top canvas edge"`
}

// Config is everything the projector needs. It is treated as immutable once
// passed to New.
type Config struct {
	Bounds    geo.Bounds
	Padding   Padding
	Overrides map[string]Override
	Points    []geo.LabeledPoint
}

// Projector is a pure, validated affine transform from Bounds to a canvas.
// It holds no mutable state and is safe for concurrent use.
type Projector struct {
	bounds    geo.Bounds
	padding   Padding
	overrides map[string]Padding
	points    []geo.LabeledPoint
}

// New validates cfg and resolves every override against the default padding
// up front, so Project never sees invalid padding.
func New(cfg Config) (*Projector, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := cfg.Padding.Validate(); err != nil {
		return nil, fmt.Errorf("default padding: %w", err)
	}

	resolved := make(map[string]Padding, len(cfg.Overrides))
	for label, o := range cfg.Overrides {
		p := o.Merge(cfg.Padding)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("padding override %q: %w", label, err)
		}
		resolved[label] = p
	}

	seen := make(map[string]struct{}, len(cfg.Points))
	for _, pt := range cfg.Points {
		if pt.Label == "" {
			return nil, fmt.Errorf("%w: point %s has no label", ErrConfiguration, pt.Coordinate)
		}
		if _, dup := seen[pt.Label]; dup {
			return nil, fmt.Errorf("%w: duplicate point label %q", ErrConfiguration, pt.Label)
		}
		seen[pt.Label] = struct{}{}
	}

	return &Projector{
		bounds:    cfg.Bounds,
		padding:   cfg.Padding,
		overrides: resolved,
		points:    slices.Clone(cfg.Points),
	}, nil
}

// Bounds returns the configured map rectangle.
func (p *Projector) Bounds() geo.Bounds {
	return p.bounds
}

// Points returns a copy of the configured points of interest.
func (p *Projector) Points() []geo.LabeledPoint {
	return slices.Clone(p.points)
}

// Labels returns the labels that carry a padding override, sorted.
func (p *Projector) Labels() []string {
	return slices.Sorted(maps.Keys(p.overrides))
}

// PaddingFor returns the effective padding for label. Unknown and empty
// labels get the default.
func (p *Projector) PaddingFor(label string) Padding {
	if label != "" {
		if pad, ok := p.overrides[label]; ok {
			return pad
		}
	}
	return p.padding
}

// Project maps c onto a width x height canvas using the padding registered
// for label. Coordinates outside the bounds extrapolate linearly; callers
// decide visibility. width and height must be positive.
func (p *Projector) Project(c geo.Coordinate, label string, width, height float64) PixelPosition {
	pad := p.PaddingFor(label)

	latRange := p.bounds.North - p.bounds.South
	lngRange := p.bounds.East - p.bounds.West

	usableWidth := width * (1 - pad.Left - pad.Right)
	usableHeight := height * (1 - pad.Top - pad.Bottom)

	return PixelPosition{
		X: (c.Lng-p.bounds.West)/lngRange*usableWidth + width*pad.Left,
		Y: (p.bounds.North-c.Lat)/latRange*usableHeight + height*pad.Top,
	}
}

// ProjectPoint projects a point of interest with its own label.
func (p *Projector) ProjectPoint(pt geo.LabeledPoint, width, height float64) PixelPosition {
	return p.Project(pt.Coordinate, pt.Label, width, height)
}

// Marker is a projected point of interest.
type Marker struct {
	geo.LabeledPoint
	Position PixelPosition `json:"position" yaml:"position"`
}

// ProjectAll projects every configured point of interest, in configuration order.
func (p *Projector) ProjectAll(width, height float64) []Marker {
	markers := make([]Marker, 0, len(p.points))
	for _, pt := range p.points {
		markers = append(markers, Marker{LabeledPoint: pt, Position: p.ProjectPoint(pt, width, height)})
	}
	return markers
}
