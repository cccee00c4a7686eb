package viewport

import (
	"math"
	"testing"
	"time"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestInitialZoom(t *testing.T) {
	tests := []struct {
		name   string
		vw, vh float64
		want   float64
	}{
		{"large screen never enlarges", 2000, 1600, 0.9},
		{"width bound", 532, 2000, 0.5 * 0.9},
		{"height bound", 2000, 612, 0.5 * 0.9},
		{"tiny screen clamps", 33, 213, MinZoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InitialZoom(tt.vw, tt.vh, 1000, 800); !approx(got, tt.want) {
				t.Fatalf("InitialZoom = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZoomSteps(t *testing.T) {
	if got := ZoomIn(1); !approx(got, 1.5) {
		t.Errorf("ZoomIn(1) = %v", got)
	}
	if got := ZoomOut(1.5); !approx(got, 1) {
		t.Errorf("ZoomOut(1.5) = %v", got)
	}
	if got := ZoomIn(40); got != MaxZoom {
		t.Errorf("ZoomIn(40) = %v", got)
	}
	if got := ZoomOut(0.012); got != MinZoom {
		t.Errorf("ZoomOut(0.012) = %v", got)
	}
}

func TestWheelAndPinch(t *testing.T) {
	if got := Wheel(1, -100); !approx(got, 2) {
		t.Errorf("Wheel up = %v", got)
	}
	if got := Wheel(1, 50); !approx(got, 0.5) {
		t.Errorf("Wheel down = %v", got)
	}
	if got := Wheel(1, 200); got != MinZoom {
		t.Errorf("Wheel past zero = %v", got)
	}
	if got := Pinch(2, 100, 150); !approx(got, 3) {
		t.Errorf("Pinch = %v", got)
	}
	if got := Pinch(2, 0, 150); got != 2 {
		t.Errorf("Pinch with no previous distance = %v", got)
	}
}

func TestAnimate(t *testing.T) {
	if got := EaseOutCubic(0.5); !approx(got, 0.875) {
		t.Errorf("EaseOutCubic(0.5) = %v", got)
	}
	if got := Animate(1, 2, 150*time.Millisecond, DefaultAnimation); !approx(got, 1.875) {
		t.Errorf("Animate midway = %v", got)
	}
	if got := Animate(1, 2, time.Second, DefaultAnimation); got != 2 {
		t.Errorf("Animate after end = %v", got)
	}

	frames := Frames(1, 1.5, DefaultAnimation, 16*time.Millisecond)
	if frames[len(frames)-1] != 1.5 {
		t.Fatalf("last frame = %v", frames[len(frames)-1])
	}
	for i := 1; i < len(frames); i++ {
		if frames[i] < frames[i-1] {
			t.Fatalf("frames not monotonic at %d: %v", i, frames)
		}
	}
}
