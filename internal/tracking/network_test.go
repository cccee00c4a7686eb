package tracking

import (
	"testing"
	"time"
)

func TestTuneWatchOptions(t *testing.T) {
	tests := []struct {
		name        string
		in          NetworkStatus
		wantTimeout time.Duration
		wantMaxAge  time.Duration
	}{
		{"wifi", NetworkStatus{Type: "wifi", Online: true, EffectiveType: "4g"}, 5 * time.Second, 0},
		{"unknown", UnknownNetwork, 5 * time.Second, 0},
		{"3g", NetworkStatus{Type: "cellular", Online: true, EffectiveType: "3g"}, 10 * time.Second, 10 * time.Second},
		{"slow-2g", NetworkStatus{Type: "cellular", Online: true, EffectiveType: "slow-2g"}, 20 * time.Second, 30 * time.Second},
		{"offline", NetworkStatus{Type: "wifi", Online: false}, 20 * time.Second, 30 * time.Second},
		{"none", NetworkStatus{Type: "none", Online: true}, 20 * time.Second, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TuneWatchOptions(tt.in)
			if got.Timeout != tt.wantTimeout || got.MaximumAge != tt.wantMaxAge || !got.HighAccuracy {
				t.Fatalf("TuneWatchOptions = %+v", got)
			}
		})
	}
}

func TestErrorMargin(t *testing.T) {
	tests := map[string]float64{
		"wifi":     8,
		"cellular": 12,
		"none":     15,
		"ethernet": 10,
	}
	for network, want := range tests {
		if got := ErrorMargin(10, network); !near(got, want) {
			t.Errorf("ErrorMargin(10, %q) = %v, want %v", network, got, want)
		}
	}
}

func TestProviderErrorCodes(t *testing.T) {
	for _, code := range []string{"permission_denied", "position_unavailable", "timeout"} {
		if got := ErrorCode(ProviderError(code)); got != code {
			t.Errorf("round trip %q = %q", code, got)
		}
	}
	if got := ErrorCode(ProviderError("bogus")); got != "unknown" {
		t.Errorf("unknown code = %q", got)
	}
	if got := ErrorCode(ErrUnsupportedEnvironment); got != "unsupported" {
		t.Errorf("unsupported = %q", got)
	}
}
