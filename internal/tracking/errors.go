package tracking

import (
	"errors"
	"fmt"
)

// Provider failures. Providers return these (optionally wrapped) from their
// error callback.
var (
	ErrPermissionDenied       = errors.New("location permission denied")
	ErrPositionUnavailable    = errors.New("position unavailable")
	ErrTimeout                = errors.New("location request timed out")
	ErrUnsupportedEnvironment = errors.New("location capability not available")
)

// ProviderError maps a provider error code to its sentinel error. The codes
// mirror the ones location providers report: permission_denied,
// position_unavailable and timeout.
func ProviderError(code string) error {
	switch code {
	case "permission_denied":
		return ErrPermissionDenied
	case "position_unavailable":
		return ErrPositionUnavailable
	case "timeout":
		return ErrTimeout
	default:
		return fmt.Errorf("unknown location error code %q", code)
	}
}

// ErrorCode is the inverse of ProviderError. It returns "unknown" for errors
// that do not wrap one of the provider sentinels.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrPositionUnavailable):
		return "position_unavailable"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnsupportedEnvironment):
		return "unsupported"
	default:
		return "unknown"
	}
}
