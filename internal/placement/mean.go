package placement

import (
	"github.com/google/uuid"

	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/stats"
)

// MeanLatencyPolicy is the primary placement policy: it estimates, for
// every (server, rpc) candidate, the latency the caller would observe
// if routed there right now, and picks the minimum. Grounded on
// _examples/original_source/src/scheduler/mean.rs.
type MeanLatencyPolicy struct{}

func NewMeanLatencyPolicy() *MeanLatencyPolicy {
	return &MeanLatencyPolicy{}
}

type candidate struct {
	server    core.ServerInfo
	rpc       core.AppRpc
	latencyMs float64
	estimated float64
}

func (p *MeanLatencyPolicy) Schedule(service core.AppService, app core.DeploymentInfo, servers map[uuid.UUID]*stats.ServerStats, apps map[uuid.UUID]*stats.AppLatency, qos QoSSpec) (Placement, bool) {
	return schedule(service, app, servers, apps, qos, func(r core.ResourceUtilization) int { return r.Cpu })
}

func (p *MeanLatencyPolicy) ScheduleGPU(service core.AppService, app core.DeploymentInfo, servers map[uuid.UUID]*stats.ServerStats, apps map[uuid.UUID]*stats.AppLatency, qos QoSSpec) (Placement, bool) {
	return schedule(service, app, servers, apps, qos, func(r core.ResourceUtilization) int { return r.Gpu })
}

func schedule(service core.AppService, app core.DeploymentInfo, servers map[uuid.UUID]*stats.ServerStats, apps map[uuid.UUID]*stats.AppLatency, qos QoSSpec, field func(core.ResourceUtilization) int) (Placement, bool) {
	rpcs := app.Services[service]
	if len(rpcs) == 0 {
		return Placement{}, false
	}

	var all []candidate
	for id, st := range servers {
		al, ok := apps[id]
		if !ok {
			continue
		}
		util := st.WeightedUtilization(field)
		free := 1 - util
		for _, rpc := range rpcs {
			lat, ok := al.Rpcs[rpc]
			if !ok {
				continue // latency absent: pair is skipped, per §4.3
			}
			latencyMs := float64(lat.Average.Microseconds()) / 1000.0
			all = append(all, candidate{
				server:    st.Server,
				rpc:       rpc,
				latencyMs: latencyMs,
				estimated: free * latencyMs,
			})
		}
	}
	if len(all) == 0 {
		return Placement{}, false
	}

	filtered := filterQoS(all, app, qos)
	pool := filtered
	byLatency := false
	if len(pool) == 0 {
		// Best-effort fallback: at least one candidate existed with
		// known latency, so return the lowest-latency rpc regardless
		// of QoS rather than reporting NoPlacement. "Lowest latency"
		// means c.latencyMs itself, not the utilization-weighted
		// estimate: a busy server's raw latency can still beat an
		// idle server's, but estimated (free*latencyMs) systematically
		// favors idle servers and would silently reintroduce a QoS-like
		// preference the fallback is supposed to have dropped.
		pool = all
		byLatency = true
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if byLatency {
			if c.latencyMs < best.latencyMs {
				best = c
			}
			continue
		}
		if c.estimated < best.estimated {
			best = c
		}
	}

	// A best-effort placement always asks for scale-out: no candidate
	// met the QoS target.
	needsScaleOut := true
	if st, ok := servers[best.server.ID]; ok && !byLatency {
		needsScaleOut = st.LastCPUUtilization() > 70
	}

	return Placement{Server: best.server, Rpc: best.rpc, NeedsScaleOut: needsScaleOut}, true
}

func filterQoS(all []candidate, app core.DeploymentInfo, qos QoSSpec) []candidate {
	var out []candidate
	for _, c := range all {
		if qos.LatencyMs != nil && c.latencyMs > float64(*qos.LatencyMs) {
			continue
		}
		if qos.AccuracyPercent != nil {
			acc, ok := app.Accuracies[c.rpc]
			if !ok || acc < *qos.AccuracyPercent {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
