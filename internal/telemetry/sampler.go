// Package telemetry samples local GPU/CPU utilization at roughly 1 Hz
// and publishes it as stats.MonitorWindow values on a bounded channel.
// Three platform backends are implemented behind one Sampler
// interface: Apple (powermetrics), NVIDIA (nvml), and Radeon
// (radeontop). Each is a single Go file gated by a build constraint,
// the same split the teacher uses between its platform-neutral
// resource-manager code and nvml_manager.go.
package telemetry

import (
	"context"

	"github.com/laqista-io/laqista/internal/stats"
)

// Sampler produces MonitorWindow values until its context is
// cancelled. Implementations emit on a channel of capacity 1: if the
// consumer is slow, older samples are dropped silently so freshness
// dominates completeness.
type Sampler interface {
	// Run starts sampling and returns a receive-only channel of
	// windows. The channel is closed when ctx is cancelled or the
	// underlying source ends.
	Run(ctx context.Context) <-chan stats.MonitorWindow
}

// NoopSampler never emits, used when a node has no GPU telemetry
// backend for its platform (--gpu-backend=none, or a platform neither
// Apple, NVIDIA, nor Radeon). A daemon built with it still runs, but
// the Reporter sends one Report per sampled window, so a node with this
// sampler sends no Reports at all and carries no utilization history.
type NoopSampler struct{}

func (NoopSampler) Run(ctx context.Context) <-chan stats.MonitorWindow {
	ch := make(chan stats.MonitorWindow)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

// sampleChannel returns a fresh channel with the capacity-1,
// drop-oldest-on-backpressure semantics every backend shares.
func sampleChannel() chan stats.MonitorWindow {
	return make(chan stats.MonitorWindow, 1)
}

// publish sends w on ch, dropping the previously buffered sample (if
// any) rather than blocking the producer. This is the "bounded channel
// of capacity 1, consumer slow => drop" rule from §4.1, implemented
// once so every backend behaves identically.
func publish(ch chan stats.MonitorWindow, w stats.MonitorWindow) {
	select {
	case ch <- w:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- w:
	default:
	}
}
