//go:build !linux && !darwin

package telemetry

import "fmt"

// New selects a Sampler backend by name on a platform with no
// supported GPU telemetry backend at all: only "none" is valid.
func New(backend string) (Sampler, error) {
	switch backend {
	case "", "none":
		return NoopSampler{}, nil
	default:
		return nil, fmt.Errorf("telemetry: unsupported backend %q on this platform", backend)
	}
}
