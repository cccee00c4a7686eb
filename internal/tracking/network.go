package tracking

import "time"

// NetworkStatus is the connectivity hint reported by the device. It only
// tunes how the provider is asked for positions and how the error margin is
// estimated; it never gates acceptance.
type NetworkStatus struct {
	Type          string  `json:"type" doc:"Connection type: wifi, cellular, none or unknown" example:"wifi"`
	Online        bool    `json:"online" doc:"Whether the device reports being online"`
	EffectiveType string  `json:"effectiveType,omitempty" doc:"Effective connection type: slow-2g, 2g, 3g or 4g" example:"4g"`
	DownlinkMbps  float64 `json:"downlink,omitempty" doc:"Estimated downlink in Mbit/s"`
	RTTMillis     int     `json:"rtt,omitempty" doc:"Estimated round trip time in milliseconds"`
}

// UnknownNetwork is used until the device reports anything.
var UnknownNetwork = NetworkStatus{Type: "unknown", Online: true}

// WatchOptions is what a Provider is asked for when a subscription starts.
type WatchOptions struct {
	HighAccuracy bool          `json:"highAccuracy"`
	Timeout      time.Duration `json:"timeout"`
	MaximumAge   time.Duration `json:"maximumAge"`
}

// TuneWatchOptions picks a per-request timeout and cache window for the
// given network hint. Slow or missing connectivity gets a longer timeout and
// is allowed to reuse a cached fix.
func TuneWatchOptions(n NetworkStatus) WatchOptions {
	opts := WatchOptions{HighAccuracy: true, Timeout: 5 * time.Second}
	switch {
	case !n.Online || n.Type == "none" || n.EffectiveType == "slow-2g" || n.EffectiveType == "2g":
		opts.Timeout = 20 * time.Second
		opts.MaximumAge = 30 * time.Second
	case n.EffectiveType == "3g":
		opts.Timeout = 10 * time.Second
		opts.MaximumAge = 10 * time.Second
	}
	return opts
}

// ErrorMargin scales the reported accuracy by how much the network type
// usually helps or hurts positioning.
func ErrorMargin(accuracy float64, networkType string) float64 {
	switch networkType {
	case "wifi":
		return accuracy * 0.8
	case "cellular":
		return accuracy * 1.2
	case "none":
		return accuracy * 1.5
	default:
		return accuracy
	}
}
