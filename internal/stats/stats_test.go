package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/laqista-io/laqista/internal/core"
)

func TestRpcLatencyRunningMeanMatchesPlainMean(t *testing.T) {
	samples := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
		5 * time.Millisecond,
	}
	l := &RpcLatency{}
	for _, d := range samples {
		l.Insert(d)
	}

	var sum time.Duration
	for _, d := range samples {
		sum += d
	}
	want := sum / time.Duration(len(samples))

	require.InDelta(t, float64(want), float64(l.Average), float64(time.Microsecond))
	require.Len(t, l.Samples, len(samples))
}

func TestStatsAppendMonotonicity(t *testing.T) {
	sm := NewStatsMap()
	server := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:50051"}
	sm.Join(server)

	counts := []int{2, 3, 1, 4}
	total := 0
	now := time.Now()
	for _, k := range counts {
		windows := make([]MonitorWindow, k)
		for i := range windows {
			windows[i] = MonitorWindow{Start: now, End: now.Add(time.Second), Utilization: core.ResourceUtilization{Cpu: 10}}
		}
		sm.Append(server, windows...)
		total += k
	}

	got := sm.Snapshot()[server.ID]
	require.Len(t, got.Windows, total)
}

func TestWeightedUtilizationIgnoresUnobserved(t *testing.T) {
	server := core.ServerInfo{ID: uuid.New(), Addr: "x"}
	s := NewServerStats(server)
	now := time.Now()
	s.Append(
		MonitorWindow{Start: now, End: now.Add(time.Second), Utilization: core.ResourceUtilization{Cpu: core.NotObserved}},
		MonitorWindow{Start: now, End: now.Add(time.Second), Utilization: core.ResourceUtilization{Cpu: 50}},
		MonitorWindow{Start: now, End: now.Add(3 * time.Second), Utilization: core.ResourceUtilization{Cpu: 100}},
	)

	util := s.WeightedUtilization(func(r core.ResourceUtilization) int { return r.Cpu })
	// (50%*1s + 100%*3s) / 4s = 0.875
	require.InDelta(t, 0.875, util, 0.0001)
}

func TestAppsMapGetOrInsertReusesEntry(t *testing.T) {
	m := NewAppsMap()
	svc := core.AppService{Package: "face", Service: "ObjectDetection"}
	server := uuid.New()
	info := core.NewDeploymentInfo(uuid.New(), "face", "https://example.test", nil, nil)

	first := m.GetOrInsert(svc, server, info)
	second := m.GetOrInsert(svc, server, info)
	require.Same(t, first, second)

	snap := m.Snapshot(svc)
	require.Len(t, snap, 1)
	require.Same(t, first, snap[server])
}
