package daemon

import (
	"sync"
	"time"

	"github.com/laqista-io/laqista/internal/stats"
)

// windowHistoryCap bounds how much of this node's own telemetry the
// Monitor rpc can answer for; older samples are dropped rather than
// growing unbounded for a long-lived daemon.
const windowHistoryCap = 256

// windowHistory is a small append-bounded buffer of this node's own
// MonitorWindow samples, fed by a tee off the sampler output, so the
// Monitor rpc has something to answer from without re-reading the
// sampler channel the reporter already drains.
type windowHistory struct {
	mu      sync.Mutex
	windows []stats.MonitorWindow
}

func newWindowHistory() *windowHistory {
	return &windowHistory{}
}

func (h *windowHistory) record(w stats.MonitorWindow) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windows = append(h.windows, w)
	if len(h.windows) > windowHistoryCap {
		h.windows = h.windows[len(h.windows)-windowHistoryCap:]
	}
}

// since returns every recorded window whose Start is at or after t.
func (h *windowHistory) since(t time.Time) []stats.MonitorWindow {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []stats.MonitorWindow
	for _, w := range h.windows {
		if !w.Start.Before(t) {
			out = append(out, w)
		}
	}
	return out
}
