package service

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/amanmaurya7/f1-map/internal/config"
	"github.com/amanmaurya7/f1-map/internal/geo"
	"github.com/amanmaurya7/f1-map/internal/projection"
)

// TrackService answers questions about the configured map.
type TrackService struct {
	name      string
	canvas    config.Canvas
	projector *projection.Projector
}

// NewTrackService builds the projector for cfg.
func NewTrackService(cfg *config.Config) (*TrackService, error) {
	p, err := projection.New(cfg.Projection())
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", cfg.Track.Name, err)
	}
	return &TrackService{name: cfg.Track.Name, canvas: cfg.Track.Canvas, projector: p}, nil
}

func (s *TrackService) Name() string                     { return s.name }
func (s *TrackService) Canvas() config.Canvas            { return s.canvas }
func (s *TrackService) Bounds() geo.Bounds               { return s.projector.Bounds() }
func (s *TrackService) Projector() *projection.Projector { return s.projector }

// Info describes the track and its points of interest.
func (s *TrackService) Info() TrackInfo {
	pts := s.projector.Points()
	info := TrackInfo{
		Name:    s.name,
		Canvas:  s.canvas,
		Bounds:  s.projector.Bounds(),
		Padding: s.projector.PaddingFor(""),
		Points:  make([]PointInfo, 0, len(pts)),

		Overridden: s.projector.Labels(),
	}
	for _, p := range pts {
		info.Points = append(info.Points, PointInfo{LabeledPoint: p, Padding: s.projector.PaddingFor(p.Label)})
	}
	return info
}

// Markers places every point of interest on a width x height canvas. Zero
// dimensions fall back to the track canvas.
func (s *TrackService) Markers(width, height float64) []Marker {
	width, height = s.size(width, height)
	projected := s.projector.ProjectAll(width, height)
	out := make([]Marker, 0, len(projected))
	for _, m := range projected {
		out = append(out, Marker{Label: m.Label, Lat: m.Lat, Lng: m.Lng, Position: m.Position})
	}
	return out
}

// Project places an arbitrary coordinate on the canvas.
func (s *TrackService) Project(req ProjectRequest) ProjectResult {
	c := geo.Coordinate{Lat: req.Lat, Lng: req.Lng}
	w, h := s.size(req.Width, req.Height)
	return ProjectResult{
		Position: s.projector.Project(c, req.Label, w, h),
		InBounds: s.projector.Bounds().Contains(c),
		Padding:  s.projector.PaddingFor(req.Label),
	}
}

// Place projects a live location with the default padding on the track canvas.
func (s *TrackService) Place(c geo.Coordinate) projection.PixelPosition {
	return s.projector.Project(c, "", s.canvas.Width, s.canvas.Height)
}

// GeoJSON exports the map bounds as a polygon and each point of interest as
// a point feature.
func (s *TrackService) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	bounds := geojson.NewFeature(s.projector.Bounds().Orb().ToPolygon())
	bounds.Properties["name"] = s.name
	bounds.Properties["kind"] = "bounds"
	fc.Append(bounds)

	for _, p := range s.projector.Points() {
		f := geojson.NewFeature(p.Point())
		f.ID = p.Label
		f.Properties["label"] = p.Label
		f.Properties["kind"] = "poi"
		fc.Append(f)
	}
	return fc
}

func (s *TrackService) size(width, height float64) (float64, float64) {
	if width <= 0 {
		width = s.canvas.Width
	}
	if height <= 0 {
		height = s.canvas.Height
	}
	return width, height
}
