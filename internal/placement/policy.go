// Package placement implements the pure placement policies: given
// cluster stats, per-app latency history, and a QoS target, choose a
// (server, rpc) pair. No policy here performs I/O.
package placement

import (
	"github.com/google/uuid"

	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/stats"
)

// QoSSpec mirrors spec §3: an absent pointer field means "no
// constraint on this axis".
type QoSSpec struct {
	AccuracyPercent *float64
	LatencyMs       *int
}

// Placement is the result of a successful schedule call.
type Placement struct {
	Server        core.ServerInfo
	Rpc           core.AppRpc
	NeedsScaleOut bool
}

// Policy is the contract every placement variant implements.
type Policy interface {
	// Schedule places an incoming request for service against app
	// using the CPU utilization field. Returns ok=false if no
	// candidate satisfies the request given available information.
	Schedule(service core.AppService, app core.DeploymentInfo, servers map[uuid.UUID]*stats.ServerStats, apps map[uuid.UUID]*stats.AppLatency, qos QoSSpec) (Placement, bool)

	// ScheduleGPU is Schedule's GPU-aware twin: it weighs the Gpu
	// utilization field instead of Cpu.
	ScheduleGPU(service core.AppService, app core.DeploymentInfo, servers map[uuid.UUID]*stats.ServerStats, apps map[uuid.UUID]*stats.AppLatency, qos QoSSpec) (Placement, bool)
}

// LeastUtilized returns the server with the smallest CPU utilization
// rate (the time-weighted average, not just the last sample), ties
// broken by map iteration order. This is the default target for
// newly-spawned instances and is shared by every policy variant, so it
// lives outside the Policy interface.
func LeastUtilized(servers map[uuid.UUID]*stats.ServerStats) (core.ServerInfo, bool) {
	var best core.ServerInfo
	bestUtil := -1.0
	found := false
	for _, s := range servers {
		u := s.WeightedUtilization(func(r core.ResourceUtilization) int { return r.Cpu })
		if !found || u < bestUtil {
			best, bestUtil, found = s.Server, u, true
		}
	}
	return best, found
}
