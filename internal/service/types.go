// Package service contains the track and live-location logic behind the API.
package service

import (
	"fmt"

	"github.com/amanmaurya7/f1-map/internal/config"
	"github.com/amanmaurya7/f1-map/internal/geo"
	"github.com/amanmaurya7/f1-map/internal/projection"
	"github.com/amanmaurya7/f1-map/internal/tracking"
)

// TrackInfo describes the configured map.
// Huma reads the tags for OpenAPI and validation.
type TrackInfo struct {
	Name    string             `json:"name" doc:"Track name" example:"Suzuka Circuit"`
	Canvas  config.Canvas      `json:"canvas" doc:"Logical size of the map image"`
	Bounds  geo.Bounds         `json:"bounds" doc:"Geographic rectangle covered by the map image"`
	Padding projection.Padding `json:"padding" doc:"Default padding as fractions of the canvas"`
	Points  []PointInfo        `json:"points" doc:"Points of interest"`
	// Overridden lists the labels placed with their own padding.
	Overridden []string `json:"overridden" doc:"Labels that carry a padding override, sorted"`
}

// PointInfo is a point of interest with its resolved padding.
type PointInfo struct {
	geo.LabeledPoint
	Padding projection.Padding `json:"padding" doc:"Effective padding after the per-label override"`
}

// Marker is a point of interest placed on a canvas.
type Marker struct {
	Label    string                   `json:"label" doc:"Marker label" example:"A"`
	Lat      float64                  `json:"lat" doc:"Latitude in degrees"`
	Lng      float64                  `json:"lng" doc:"Longitude in degrees"`
	Position projection.PixelPosition `json:"position" doc:"Position in canvas units"`
}

// ProjectRequest asks for the canvas position of an arbitrary coordinate.
type ProjectRequest struct {
	Lat    float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Latitude in degrees" example:"34.845644"`
	Lng    float64 `json:"lng" minimum:"-180" maximum:"180" doc:"Longitude in degrees" example:"136.54065"`
	Label  string  `json:"label,omitempty" doc:"Apply the padding override registered for this label" example:"A"`
	Width  float64 `json:"width,omitempty" exclusiveMinimum:"0" doc:"Canvas width, defaults to the track canvas" example:"1000"`
	Height float64 `json:"height,omitempty" exclusiveMinimum:"0" doc:"Canvas height, defaults to the track canvas" example:"800"`
}

// ProjectResult is the projected position of a coordinate.
type ProjectResult struct {
	Position projection.PixelPosition `json:"position" doc:"Position in canvas units; may lie outside the canvas"`
	InBounds bool                     `json:"inBounds" doc:"Whether the coordinate lies inside the map bounds"`
	Padding  projection.Padding       `json:"padding" doc:"Padding used for the projection"`
}

// LocationUpdate is an accepted location placed on the track canvas.
type LocationUpdate struct {
	tracking.Event
	Position projection.PixelPosition `json:"position" doc:"Position on the track canvas"`
	Visible  bool                     `json:"visible" doc:"Whether the user marker should be drawn"`
}

// SampleInput is a raw device fix as reported by a browser or phone.
type SampleInput struct {
	Lat       float64 `json:"lat" minimum:"-90" maximum:"90" validate:"gte=-90,lte=90" doc:"Latitude in degrees" example:"34.845644"`
	Lng       float64 `json:"lng" minimum:"-180" maximum:"180" validate:"gte=-180,lte=180" doc:"Longitude in degrees" example:"136.54065"`
	Accuracy  float64 `json:"accuracy" minimum:"0" validate:"gte=0" doc:"Horizontal accuracy radius in meters" example:"8"`
	Timestamp int64   `json:"timestamp,omitempty" validate:"gte=0" doc:"Fix time in Unix milliseconds; server time when omitted" example:"1700000000000"`
}

// Validate checks the fix against the same ranges the REST schema enforces.
// Samples arriving over WebSocket or Datastar signals skip Huma validation.
func (s SampleInput) Validate() error {
	if err := sampleValidator.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSample, err)
	}
	return nil
}

// RawSample converts the input, stamping it with now when no time was given.
func (s SampleInput) RawSample(nowMillis int64) tracking.RawSample {
	ts := s.Timestamp
	if ts == 0 {
		ts = nowMillis
	}
	return tracking.RawSample{
		Coordinate:     geo.Coordinate{Lat: s.Lat, Lng: s.Lng},
		AccuracyMeters: s.Accuracy,
		Timestamp:      ts,
	}
}
