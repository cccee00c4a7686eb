// Package viewport holds the zoom math for the map viewer: fitting the
// canvas into the viewport and scaling it in response to input.
package viewport

import (
	"math"
	"time"
)

const (
	MinZoom  = 0.01
	MaxZoom  = 50.0
	ZoomStep = 1.5

	// ChromeWidth and ChromeHeight are the pixels the page reserves around
	// the map (side gutters, header and bottom navigation).
	ChromeWidth  = 32.0
	ChromeHeight = 148.0 + 64.0

	// FitMargin leaves a little room around a fitted map.
	FitMargin = 0.9

	wheelSensitivity = 0.01
)

// DefaultAnimation is the duration of a button-driven zoom.
const DefaultAnimation = 300 * time.Millisecond

// InitialZoom returns the zoom that fits a mapW x mapH canvas into the
// viewport after chrome is removed. It never enlarges the map.
func InitialZoom(viewportW, viewportH, mapW, mapH float64) float64 {
	if mapW <= 0 || mapH <= 0 {
		return FitMargin
	}
	h := (viewportW - ChromeWidth) / mapW
	v := (viewportH - ChromeHeight) / mapH
	z := math.Min(math.Min(h, v), 1) * FitMargin
	if z < MinZoom {
		return MinZoom
	}
	return z
}

// Clamp limits zoom to [MinZoom, MaxZoom].
func Clamp(zoom float64) float64 {
	if math.IsNaN(zoom) {
		return 1
	}
	return math.Min(math.Max(zoom, MinZoom), MaxZoom)
}

func ZoomIn(zoom float64) float64  { return Clamp(zoom * ZoomStep) }
func ZoomOut(zoom float64) float64 { return Clamp(zoom / ZoomStep) }

// Wheel applies a mouse wheel delta. Scrolling up (negative deltaY) zooms in.
func Wheel(zoom, deltaY float64) float64 {
	return Clamp(zoom * (1 - deltaY*wheelSensitivity))
}

// Pinch scales zoom by the change in distance between two touch points.
func Pinch(zoom, prevDistance, distance float64) float64 {
	if prevDistance <= 0 {
		return Clamp(zoom)
	}
	return Clamp(zoom * distance / prevDistance)
}

// EaseOutCubic maps linear progress t in [0,1] onto a decelerating curve.
func EaseOutCubic(t float64) float64 {
	t = math.Min(math.Max(t, 0), 1)
	return 1 - math.Pow(1-t, 3)
}

// Animate returns the zoom at elapsed time into an eased transition from
// one zoom level to another.
func Animate(from, to float64, elapsed, duration time.Duration) float64 {
	if duration <= 0 || elapsed >= duration {
		return to
	}
	p := float64(elapsed) / float64(duration)
	return from + (to-from)*EaseOutCubic(p)
}

// Frames samples an animation at the given frame interval, ending exactly
// on the target.
func Frames(from, to float64, duration, frame time.Duration) []float64 {
	if frame <= 0 || duration <= 0 {
		return []float64{to}
	}
	var out []float64
	for e := frame; e < duration; e += frame {
		out = append(out, Animate(from, to, e, duration))
	}
	return append(out, to)
}
