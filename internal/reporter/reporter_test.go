package reporter

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/laqista-io/laqista/internal/cluster"
	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/rpc"
	"github.com/laqista-io/laqista/internal/stats"
)

// fakeSchedulerClient implements rpc.SchedulerClient with Report
// always failing transport-wise, modeling a dead scheduler for S2.
type fakeSchedulerClient struct {
	rpc.SchedulerClient
	reportCalls int
	fail        bool
}

func (f *fakeSchedulerClient) Report(ctx context.Context, in *rpc.ReportRequest, opts ...grpc.CallOption) (*rpc.ReportReply, error) {
	f.reportCalls++
	if f.fail {
		return nil, errAlwaysFails
	}
	return &rpc.ReportReply{Success: true}, nil
}

var errAlwaysFails = &core.LaqistaError{Kind: core.KindUpstreamUnavailable, Message: "dead scheduler"}

func TestReporterFailsOverAfterThreeRetries(t *testing.T) {
	selfID := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	deadID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	self := core.ServerInfo{ID: selfID, Addr: "127.0.0.1:2"}
	dead := core.ServerInfo{ID: deadID, Addr: "127.0.0.1:1"}

	client := &fakeSchedulerClient{fail: true}
	commands := make(chan StateCommand, 1)
	r := NewReporter(self, client, func() core.ServerInfo { return dead }, commands, nil)
	r.cached = cluster.State{
		Group:   &cluster.Group{Scheduler: dead},
		Servers: []core.ServerInfo{dead, self},
	}

	windows := make(chan stats.MonitorWindow, 1)
	metrics := make(chan AppMetric, 1)
	windows <- stats.MonitorWindow{Start: time.Now(), End: time.Now().Add(time.Second), Utilization: core.ResourceUtilization{Cpu: 10}}
	close(windows)

	r.Run(context.Background(), windows, metrics)

	require.Equal(t, 3, client.reportCalls, "expected exactly 3 retry attempts")

	select {
	case cmd := <-commands:
		require.NotNil(t, cmd.BecomeScheduler, "self is UUID-minimum survivor, should become scheduler")
		require.Equal(t, selfID, cmd.BecomeScheduler.Group.Scheduler.ID)
	default:
		t.Fatal("expected a StateCommand after failover")
	}
}
