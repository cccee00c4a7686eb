// Package geo holds the coordinate types shared by the projector and the
// location filter, plus the great-circle distance they both rely on.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS 84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat" mapstructure:"lat" doc:"Latitude in degrees" example:"34.845644"`
	Lng float64 `json:"lng" yaml:"lng" mapstructure:"lng" doc:"Longitude in degrees" example:"136.54065"`
}

// Point returns the coordinate as an orb point (lng, lat).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// FromPoint converts an orb point back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lng)
}

// LabeledPoint is a fixed point of interest on the map.
type LabeledPoint struct {
	Coordinate `yaml:",inline" mapstructure:",squash"`
	Label      string `json:"label" yaml:"label" mapstructure:"label" doc:"Short marker label" example:"A"`
}

// Bounds is the latitude/longitude rectangle covered by the map image.
type Bounds struct {
	North float64 `json:"north" yaml:"north" mapstructure:"north" doc:"Maximum latitude"`
	South float64 `json:"south" yaml:"south" mapstructure:"south" doc:"Minimum latitude"`
	East  float64 `json:"east" yaml:"east" mapstructure:"east" doc:"Maximum longitude"`
	West  float64 `json:"west" yaml:"west" mapstructure:"west" doc:"Minimum longitude"`
}

// Validate reports whether the rectangle has a positive extent on both axes.
func (b Bounds) Validate() error {
	if !(b.North > b.South) {
		return fmt.Errorf("bounds: north %v must be greater than south %v", b.North, b.South)
	}
	if !(b.East > b.West) {
		return fmt.Errorf("bounds: east %v must be greater than west %v", b.East, b.West)
	}
	return nil
}

// Contains reports whether c lies inside the bounds. All four edges are inclusive.
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lng >= b.West && c.Lng <= b.East
}

// Orb returns the bounds as an orb.Bound.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// Center is the midpoint of the rectangle.
func (b Bounds) Center() Coordinate {
	return FromPoint(b.Orb().Center())
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Coordinate) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// Offset moves c by the given distances in meters (north and east positive).
// It uses a local flat-earth approximation, which is plenty for the
// sub-kilometre distances on a single track.
func Offset(c Coordinate, northMeters, eastMeters float64) Coordinate {
	dLat := northMeters / EarthRadiusMeters
	dLng := eastMeters / (EarthRadiusMeters * math.Cos(toRad(c.Lat)))
	return Coordinate{
		Lat: c.Lat + dLat*180/math.Pi,
		Lng: c.Lng + dLng*180/math.Pi,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
