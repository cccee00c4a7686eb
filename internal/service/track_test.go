package service

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/amanmaurya7/f1-map/internal/config"
)

func newTrack(t *testing.T) *TrackService {
	t.Helper()
	ts, err := NewTrackService(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestTrackInfo(t *testing.T) {
	info := newTrack(t).Info()
	if info.Name != "Suzuka Circuit" || len(info.Points) != 4 {
		t.Fatalf("info = %+v", info)
	}
	a := info.Points[0]
	if a.Label != "A" || a.Padding.Left != 0.18 || a.Padding.Right != 0.3 {
		t.Fatalf("point A = %+v", a)
	}
	if info.Padding.Left != 0.1 {
		t.Fatalf("default padding = %+v", info.Padding)
	}
	if got := strings.Join(info.Overridden, ","); got != "A,B,C,D" {
		t.Fatalf("overridden = %q", got)
	}
}

func TestTrackMarkersDefaultCanvas(t *testing.T) {
	ts := newTrack(t)
	markers := ts.Markers(0, 0)
	if len(markers) != 4 {
		t.Fatalf("got %d markers", len(markers))
	}
	a := markers[0]
	if math.Abs(a.Position.X-611.3501910443) > 1e-6 || math.Abs(a.Position.Y-496.0506294284) > 1e-6 {
		t.Fatalf("A = %+v", a.Position)
	}

	half := ts.Markers(500, 400)
	if math.Abs(half[0].Position.X*2-a.Position.X) > 1e-6 {
		t.Fatalf("markers do not scale with canvas: %v vs %v", half[0].Position, a.Position)
	}
}

func TestTrackProject(t *testing.T) {
	ts := newTrack(t)
	res := ts.Project(ProjectRequest{Lat: 34.845644, Lng: 136.54065})
	if !res.InBounds {
		t.Fatal("A should be in bounds")
	}
	if math.Abs(res.Position.X-597.7117588973) > 1e-6 || math.Abs(res.Position.Y-486.7194056546) > 1e-6 {
		t.Fatalf("default padding projection = %+v", res.Position)
	}

	out := ts.Project(ProjectRequest{Lat: 35, Lng: 136.54065})
	if out.InBounds || out.Position.Y >= 0 {
		t.Fatalf("north of the map = %+v", out)
	}
}

func TestTrackGeoJSON(t *testing.T) {
	fc := newTrack(t).GeoJSON()
	if len(fc.Features) != 5 {
		t.Fatalf("got %d features", len(fc.Features))
	}

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatal(err)
	}
	back, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatal(err)
	}
	poly, ok := back.Features[0].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("first feature is %T", back.Features[0].Geometry)
	}
	if b := poly.Bound(); b.Max[1] != 34.854529 || b.Min[0] != 136.521328 {
		t.Fatalf("bounds polygon = %v", b)
	}
	d, ok := back.Features[4].Geometry.(orb.Point)
	if !ok || d.Lat() != 34.854529 || back.Features[4].Properties.MustString("label") != "D" {
		t.Fatalf("point D = %+v", back.Features[4])
	}
}
