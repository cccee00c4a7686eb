// Package tracking turns a noisy stream of device location samples into a
// low-rate stream of accepted positions.
package tracking

import (
	"math"
	"time"

	"github.com/amanmaurya7/f1-map/internal/geo"
)

// RawSample is one reading from the location provider.
type RawSample struct {
	geo.Coordinate
	AccuracyMeters float64 `json:"accuracy" doc:"Reported accuracy radius in meters" minimum:"0"`
	Timestamp      int64   `json:"timestamp" doc:"Sample time in Unix milliseconds"`
}

// Quality summarises the most recently accepted sample.
type Quality struct {
	AccuracyMeters    float64 `json:"accuracy" doc:"Reported accuracy radius in meters"`
	IsStable          bool    `json:"stable" doc:"Recent samples show no real movement"`
	ErrorMarginMeters float64 `json:"errorMargin" doc:"Accuracy adjusted for the network type"`
	Indoor            bool    `json:"indoor" doc:"Accuracy is poor enough to suggest an indoor fix"`
}

// Verdict is the outcome of offering a sample to the filter.
type Verdict string

const (
	Accepted         Verdict = "accepted"
	RejectedRate     Verdict = "rejected_rate"
	RejectedDistance Verdict = "rejected_distance"
	RejectedAccuracy Verdict = "rejected_accuracy"
)

// FilterConfig holds the acceptance thresholds.
type FilterConfig struct {
	MinInterval        time.Duration `json:"minInterval" yaml:"min_interval" mapstructure:"min_interval" validate:"gte=0"`
	MinDistanceMeters  float64       `json:"minDistance" yaml:"min_distance" mapstructure:"min_distance" validate:"gte=0"`
	MaxAccuracyMeters  float64       `json:"maxAccuracy" yaml:"max_accuracy" mapstructure:"max_accuracy" validate:"gt=0"`
	WindowSize         int           `json:"windowSize" yaml:"window_size" mapstructure:"window_size" validate:"gte=2"`
	StabilityWindow    time.Duration `json:"stabilityWindow" yaml:"stability_window" mapstructure:"stability_window" validate:"gt=0"`
	StableMeanDistance float64       `json:"stableMeanDistance" yaml:"stable_mean_distance" mapstructure:"stable_mean_distance" validate:"gt=0"`
	IndoorAccuracy     float64       `json:"indoorAccuracy" yaml:"indoor_accuracy" mapstructure:"indoor_accuracy" validate:"gt=0"`
}

// DefaultFilterConfig is the threshold set used unless configured otherwise.
var DefaultFilterConfig = FilterConfig{
	MinInterval:        500 * time.Millisecond,
	MinDistanceMeters:  10,
	MaxAccuracyMeters:  100,
	WindowSize:         10,
	StabilityWindow:    5 * time.Second,
	StableMeanDistance: 5,
	IndoorAccuracy:     30,
}

// Filter owns the per-session state: the last accepted sample and a rolling
// window of recent raw samples that passed the accuracy check. Rejected but
// accurate readings stay in the window so stationary drift shows up in the
// stability estimate. A Filter is not safe for concurrent use;
// the Tracker serializes access to it.
type Filter struct {
	cfg     FilterConfig
	network NetworkStatus

	last    RawSample
	hasLast bool
	window  []RawSample
	quality Quality
}

// NewFilter returns an empty filter.
func NewFilter(cfg FilterConfig, network NetworkStatus) *Filter {
	if cfg.WindowSize < 1 {
		cfg.WindowSize = DefaultFilterConfig.WindowSize
	}
	return &Filter{
		cfg:     cfg,
		network: network,
		window:  make([]RawSample, 0, cfg.WindowSize),
	}
}

// Offer runs s through the rate, displacement and accuracy gates in that
// order. On acceptance the last sample and quality are updated.
func (f *Filter) Offer(s RawSample) (Quality, Verdict) {
	accurate := validAccuracy(s.AccuracyMeters) && s.AccuracyMeters <= f.cfg.MaxAccuracyMeters
	if accurate {
		f.remember(s)
	}

	if f.hasLast && s.Timestamp-f.last.Timestamp < f.cfg.MinInterval.Milliseconds() {
		return Quality{}, RejectedRate
	}
	if f.hasLast && geo.Haversine(f.last.Coordinate, s.Coordinate) < f.cfg.MinDistanceMeters {
		return Quality{}, RejectedDistance
	}
	if !accurate {
		return Quality{}, RejectedAccuracy
	}

	f.last = s
	f.hasLast = true

	f.quality = Quality{
		AccuracyMeters:    s.AccuracyMeters,
		IsStable:          IsStable(f.window, s.Timestamp, f.cfg.StabilityWindow, f.cfg.StableMeanDistance),
		ErrorMarginMeters: ErrorMargin(s.AccuracyMeters, f.network.Type),
		Indoor:            s.AccuracyMeters > f.cfg.IndoorAccuracy,
	}
	return f.quality, Accepted
}

// remember appends s to the window, evicting the oldest entry when full.
// Samples older than the newest entry are dropped so the window stays in
// time order.
func (f *Filter) remember(s RawSample) {
	if n := len(f.window); n > 0 && s.Timestamp < f.window[n-1].Timestamp {
		return
	}
	if len(f.window) == f.cfg.WindowSize {
		copy(f.window, f.window[1:])
		f.window = f.window[:len(f.window)-1]
	}
	f.window = append(f.window, s)
}

// Last returns the last accepted sample, if any.
func (f *Filter) Last() (RawSample, bool) {
	return f.last, f.hasLast
}

// Quality returns the quality computed for the last accepted sample.
func (f *Filter) Quality() Quality {
	return f.quality
}

// IsStable reports whether the samples newer than window (relative to now,
// in Unix ms) moved less than meanMeters on average between consecutive
// readings. Fewer than two recent samples count as stable.
func IsStable(samples []RawSample, now int64, window time.Duration, meanMeters float64) bool {
	var (
		prev  *RawSample
		total float64
		gaps  int
	)
	for i := range samples {
		s := &samples[i]
		if now-s.Timestamp >= window.Milliseconds() {
			continue
		}
		if prev != nil {
			total += geo.Haversine(prev.Coordinate, s.Coordinate)
			gaps++
		}
		prev = s
	}
	if gaps == 0 {
		return true
	}
	return total/float64(gaps) < meanMeters
}

func validAccuracy(a float64) bool {
	return a >= 0 && !math.IsNaN(a) && !math.IsInf(a, 0)
}
