package rpc

import (
	"time"

	"github.com/laqista-io/laqista/internal/placement"
	"github.com/laqista-io/laqista/internal/stats"
)

// ToWindow converts a stats.MonitorWindow to its wire shape.
func ToWindow(w stats.MonitorWindow) Window {
	return Window{
		Start:       w.Start.UnixNano(),
		End:         w.End.UnixNano(),
		Utilization: w.Utilization,
	}
}

// FromWindow converts a wire Window back to a stats.MonitorWindow.
func FromWindow(w Window) stats.MonitorWindow {
	return stats.MonitorWindow{
		Start:       time.Unix(0, w.Start),
		End:         time.Unix(0, w.End),
		Utilization: w.Utilization,
	}
}

// ToQoS converts a placement.QoSSpec to its wire shape.
func ToQoS(q placement.QoSSpec) QoS {
	return QoS{AccuracyPercent: q.AccuracyPercent, LatencyMs: q.LatencyMs}
}

// FromQoS converts a wire QoS back to placement.QoSSpec.
func FromQoS(q QoS) placement.QoSSpec {
	return placement.QoSSpec{AccuracyPercent: q.AccuracyPercent, LatencyMs: q.LatencyMs}
}
