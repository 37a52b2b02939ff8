//go:build linux

package telemetry

import "fmt"

// New selects a Sampler backend by name for a Linux build: "nvidia"
// polls go-nvml, "radeon" shells out to radeontop, and "none" disables
// telemetry. Apple's backend is unavailable on this platform.
func New(backend string) (Sampler, error) {
	switch backend {
	case "", "nvidia":
		return NewNVIDIASampler(), nil
	case "radeon":
		return NewRadeonSampler(), nil
	case "none":
		return NoopSampler{}, nil
	default:
		return nil, fmt.Errorf("telemetry: unsupported backend %q on linux", backend)
	}
}
