package geo

import (
	"math"
	"testing"
)

var suzuka = Bounds{
	North: 34.854529,
	South: 34.839992,
	East:  136.544621,
	West:  136.521328,
}

func TestBoundsContainsCorners(t *testing.T) {
	corners := []Coordinate{
		{Lat: suzuka.North, Lng: suzuka.West},
		{Lat: suzuka.North, Lng: suzuka.East},
		{Lat: suzuka.South, Lng: suzuka.West},
		{Lat: suzuka.South, Lng: suzuka.East},
	}
	for _, c := range corners {
		if !suzuka.Contains(c) {
			t.Errorf("corner %s should be inside", c)
		}
	}
}

func TestBoundsContainsPerturbedEdges(t *testing.T) {
	const eps = 0.0001
	center := suzuka.Center()

	tests := []struct {
		name string
		c    Coordinate
	}{
		{"north", Coordinate{Lat: suzuka.North + eps, Lng: center.Lng}},
		{"south", Coordinate{Lat: suzuka.South - eps, Lng: center.Lng}},
		{"east", Coordinate{Lat: center.Lat, Lng: suzuka.East + eps}},
		{"west", Coordinate{Lat: center.Lat, Lng: suzuka.West - eps}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if suzuka.Contains(tt.c) {
				t.Fatalf("%s should be outside", tt.c)
			}
		})
	}

	if !suzuka.Contains(center) {
		t.Fatal("center should be inside")
	}
}

func TestBoundsValidate(t *testing.T) {
	if err := suzuka.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flipped := Bounds{North: suzuka.South, South: suzuka.North, East: suzuka.East, West: suzuka.West}
	if err := flipped.Validate(); err == nil {
		t.Fatal("expected error for north <= south")
	}
	narrow := Bounds{North: suzuka.North, South: suzuka.South, East: suzuka.West, West: suzuka.West}
	if err := narrow.Validate(); err == nil {
		t.Fatal("expected error for east <= west")
	}
}

func TestHaversine(t *testing.T) {
	a := Coordinate{Lat: 34.845644, Lng: 136.54065}

	if d := Haversine(a, a); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}

	// One degree of latitude on a 6371 km sphere.
	b := Coordinate{Lat: a.Lat + 1, Lng: a.Lng}
	want := 2 * math.Pi * EarthRadiusMeters / 360
	if d := Haversine(a, b); math.Abs(d-want) > 1e-6 {
		t.Fatalf("one degree = %v, want %v", d, want)
	}

	if Haversine(a, b) != Haversine(b, a) {
		t.Fatal("haversine should be symmetric")
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	a := Coordinate{Lat: 34.845644, Lng: 136.54065}
	for _, m := range []float64{1, 3, 10, 15, 50, 250} {
		b := Offset(a, m, 0)
		if d := Haversine(a, b); math.Abs(d-m) > 0.01 {
			t.Errorf("north offset %vm measured %vm", m, d)
		}
		c := Offset(a, 0, m)
		if d := Haversine(a, c); math.Abs(d-m) > 0.01 {
			t.Errorf("east offset %vm measured %vm", m, d)
		}
	}
}

func TestOrbRoundTrip(t *testing.T) {
	c := Coordinate{Lat: 34.847328, Lng: 136.521328}
	if got := FromPoint(c.Point()); got != c {
		t.Fatalf("round trip = %v, want %v", got, c)
	}
	b := suzuka.Orb()
	if !b.Contains(c.Point()) {
		t.Fatal("orb bound should contain west edge point")
	}
}
