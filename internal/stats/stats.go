// Package stats holds the per-server and per-rpc history the
// placement policy reads: utilization windows, running-mean rpc
// latencies, and the maps that index both by server and by service.
package stats

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/laqista-io/laqista/internal/core"
)

// MonitorWindow is a single self-describing telemetry sample. Start
// and End need not be contiguous with neighboring windows; each window
// carries enough information (its own duration) to be weighted on its
// own.
type MonitorWindow struct {
	Start       time.Time
	End         time.Time
	Utilization core.ResourceUtilization
}

// Duration returns End-Start, clamped to zero for a malformed window
// rather than going negative and poisoning a weighted average.
func (w MonitorWindow) Duration() time.Duration {
	d := w.End.Sub(w.Start)
	if d < 0 {
		return 0
	}
	return d
}

// ServerStats is one server's append-only window history for the
// lifetime of its current cluster membership; it is reset (a fresh,
// empty ServerStats) whenever that server rejoins.
type ServerStats struct {
	Server  core.ServerInfo
	Windows []MonitorWindow
}

// NewServerStats returns an empty history for a freshly joined server.
func NewServerStats(server core.ServerInfo) *ServerStats {
	return &ServerStats{Server: server}
}

// Append adds windows to the tail of the history. Append-only:
// existing entries are never rewritten or reordered.
func (s *ServerStats) Append(windows ...MonitorWindow) {
	s.Windows = append(s.Windows, windows...)
}

// WeightedUtilization computes the time-weighted average of the given
// field across all windows, weighted by each window's duration in
// nanoseconds, per the mean-latency placement algorithm. field selects
// which ResourceUtilization member to read (core.ResourceUtilization's
// Cpu or Gpu).
func (s *ServerStats) WeightedUtilization(field func(core.ResourceUtilization) int) float64 {
	var weightedSum, totalWeight float64
	for _, w := range s.Windows {
		v := field(w.Utilization)
		if v < 0 {
			continue // NotObserved windows do not participate
		}
		weight := float64(w.Duration().Nanoseconds())
		if weight <= 0 {
			continue
		}
		weightedSum += float64(v) / 100.0 * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// LastCPUUtilization returns the Cpu field of the most recent window,
// or core.NotObserved if there are no windows yet. This feeds the
// needs_scale_out > 70% rule, which is defined over the *last*
// observation rather than the weighted average.
func (s *ServerStats) LastCPUUtilization() int {
	if len(s.Windows) == 0 {
		return core.NotObserved
	}
	return s.Windows[len(s.Windows)-1].Utilization.Cpu
}

// RpcLatency tracks the running mean elapsed time for one rpc plus the
// raw sample sequence. The reference implementation's running-mean
// update has a known off-by-one (average = (average*n + elapsed)/n);
// Insert here uses the corrected form, average = (average*n +
// elapsed)/(n+1), so the invariant average == mean(samples) holds
// after every insert.
type RpcLatency struct {
	Average time.Duration
	Samples []time.Duration
}

// Insert records one more elapsed duration and updates the running
// mean.
func (l *RpcLatency) Insert(elapsed time.Duration) {
	n := len(l.Samples)
	l.Average = time.Duration((int64(l.Average)*int64(n) + int64(elapsed)) / int64(n+1))
	l.Samples = append(l.Samples, elapsed)
}

// AppLatency is one deployment's per-rpc latency histories, as
// observed by a particular server (or, in the authoritative node's
// map, by the cluster as a whole for that server's AppsMap entry).
type AppLatency struct {
	Info core.DeploymentInfo
	Rpcs map[core.AppRpc]*RpcLatency
}

// NewAppLatency returns an AppLatency with an empty rpc map, ready for
// Insert.
func NewAppLatency(info core.DeploymentInfo) *AppLatency {
	return &AppLatency{Info: info, Rpcs: make(map[core.AppRpc]*RpcLatency)}
}

// Insert records elapsed against rpc, creating its RpcLatency on first
// use.
func (a *AppLatency) Insert(rpc core.AppRpc, elapsed time.Duration) {
	l, ok := a.Rpcs[rpc]
	if !ok {
		l = &RpcLatency{}
		a.Rpcs[rpc] = l
	}
	l.Insert(elapsed)
}

// AppsMap indexes AppLatency first by service, then by server, so that
// a service-scoped scheduling query never scans unrelated apps.
type AppsMap struct {
	mu   sync.Mutex
	data map[core.AppService]map[uuid.UUID]*AppLatency
}

func NewAppsMap() *AppsMap {
	return &AppsMap{data: make(map[core.AppService]map[uuid.UUID]*AppLatency)}
}

// GetOrInsert returns the AppLatency for (service, server), creating it
// from info if this is the first observation of that pair.
func (m *AppsMap) GetOrInsert(service core.AppService, server uuid.UUID, info core.DeploymentInfo) *AppLatency {
	m.mu.Lock()
	defer m.mu.Unlock()
	byServer, ok := m.data[service]
	if !ok {
		byServer = make(map[uuid.UUID]*AppLatency)
		m.data[service] = byServer
	}
	al, ok := byServer[server]
	if !ok {
		al = NewAppLatency(info)
		byServer[server] = al
	}
	return al
}

// Snapshot returns a shallow copy of the per-server map for a service,
// suitable for the placement policy to range over without holding the
// map's lock (the coarse clone-under-lock-then-release discipline of
// §5).
func (m *AppsMap) Snapshot(service core.AppService) map[uuid.UUID]*AppLatency {
	m.mu.Lock()
	defer m.mu.Unlock()
	byServer, ok := m.data[service]
	if !ok {
		return nil
	}
	out := make(map[uuid.UUID]*AppLatency, len(byServer))
	for k, v := range byServer {
		out[k] = v
	}
	return out
}

// StatsMap is the live membership plus each member's window history,
// keyed by server id.
type StatsMap struct {
	mu   sync.Mutex
	data map[uuid.UUID]*ServerStats
}

func NewStatsMap() *StatsMap {
	return &StatsMap{data: make(map[uuid.UUID]*ServerStats)}
}

// Join creates an empty ServerStats entry for server, resetting any
// prior history (a rejoin always starts fresh per §3).
func (m *StatsMap) Join(server core.ServerInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[server.ID] = NewServerStats(server)
}

// Remove drops a server's entry entirely. The election path does not
// call it; the reporter prunes its cached cluster.State instead.
func (m *StatsMap) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
}

// Append adds windows to server's history, initializing the entry if
// this is its first Report.
func (m *StatsMap) Append(server core.ServerInfo, windows ...MonitorWindow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[server.ID]
	if !ok {
		s = NewServerStats(server)
		m.data[server.ID] = s
	}
	s.Append(windows...)
}

// Snapshot returns a shallow copy of the whole map, for the placement
// policy to iterate without holding the lock.
func (m *StatsMap) Snapshot() map[uuid.UUID]*ServerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*ServerStats, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Len reports the current membership count.
func (m *StatsMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
