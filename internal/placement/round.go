package placement

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/stats"
)

// RoundRobinPolicy is the secondary, testing-oriented policy: it
// ignores utilization and latency entirely and cycles through the
// known servers in order. Grounded on
// _examples/original_source/src/scheduler/round.rs.
type RoundRobinPolicy struct {
	mu     sync.Mutex
	cursor int
}

func NewRoundRobinPolicy() *RoundRobinPolicy {
	return &RoundRobinPolicy{}
}

func sortedServers(servers map[uuid.UUID]*stats.ServerStats) []core.ServerInfo {
	ids := make([]uuid.UUID, 0, len(servers))
	for id := range servers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	out := make([]core.ServerInfo, len(ids))
	for i, id := range ids {
		out[i] = servers[id].Server
	}
	return out
}

func (p *RoundRobinPolicy) next(servers map[uuid.UUID]*stats.ServerStats) (core.ServerInfo, bool) {
	ordered := sortedServers(servers)
	if len(ordered) == 0 {
		return core.ServerInfo{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.cursor % len(ordered)
	p.cursor++
	return ordered[idx], true
}

func (p *RoundRobinPolicy) Schedule(service core.AppService, app core.DeploymentInfo, servers map[uuid.UUID]*stats.ServerStats, apps map[uuid.UUID]*stats.AppLatency, qos QoSSpec) (Placement, bool) {
	rpcs := app.Services[service]
	if len(rpcs) == 0 {
		return Placement{}, false
	}
	server, ok := p.next(servers)
	if !ok {
		return Placement{}, false
	}
	return Placement{Server: server, Rpc: rpcs[0], NeedsScaleOut: true}, true
}

func (p *RoundRobinPolicy) ScheduleGPU(service core.AppService, app core.DeploymentInfo, servers map[uuid.UUID]*stats.ServerStats, apps map[uuid.UUID]*stats.AppLatency, qos QoSSpec) (Placement, bool) {
	return p.Schedule(service, app, servers, apps, qos)
}
