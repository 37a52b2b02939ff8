//go:build darwin

package telemetry

import "fmt"

// New selects a Sampler backend by name for a Darwin build: "apple"
// shells out to powermetrics, "none" disables telemetry. NVIDIA and
// Radeon backends are unavailable on this platform.
func New(backend string) (Sampler, error) {
	switch backend {
	case "", "apple":
		return NewAppleSampler(), nil
	case "none":
		return NoopSampler{}, nil
	default:
		return nil, fmt.Errorf("telemetry: unsupported backend %q on darwin", backend)
	}
}
