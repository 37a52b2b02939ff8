package reporter

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/cluster"
	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/rpc"
	"github.com/laqista-io/laqista/internal/stats"
)

const (
	retryAttempts = 3
	retryBackoff  = 200 * time.Millisecond
)

// StateCommand is the one-way message the reporter sends to the daemon
// state machine (H) when it observes the scheduler die. The daemon is
// the sole writer of its own state; the reporter only ever sends
// commands, never mutates daemon state directly (§9).
type StateCommand struct {
	// BecomeScheduler is set when this node won the election.
	BecomeScheduler *cluster.State
	// JoinAddr is set when another node won; the daemon should
	// transition to Joining(JoinAddr).
	JoinAddr string
}

// Reporter runs on every non-authoritative node. It owns the
// MonitorWindow channel from the telemetry sampler (A) and the
// AppMetric channel from the middleware (C), forwarding both upward
// via Report, and reacting to transport failure by running the
// election of §4.6. Grounded in retry shape on
// _examples/linskybing-k8s-device-plugin/internal/scheduler/
// reserve_helpers.go's ReserveForPod (increasing-backoff retry loop),
// adapted to the fixed 3x/200ms schedule §4.4 specifies.
type Reporter struct {
	self      core.ServerInfo
	client    rpc.SchedulerClient
	commands  chan<- StateCommand
	cached    cluster.State
	schedulerID func() core.ServerInfo

	attempts  prometheus.Counter
	failures  prometheus.Counter
	failovers prometheus.Counter
}

// NewReporter builds a Reporter targeting client as the current
// scheduler connection. schedulerID returns the ServerInfo of the
// node the reporter currently considers authoritative, so it can be
// excluded from the survivor set on election.
func NewReporter(self core.ServerInfo, client rpc.SchedulerClient, schedulerID func() core.ServerInfo, commands chan<- StateCommand, registry *prometheus.Registry) *Reporter {
	r := &Reporter{
		self:        self,
		client:      client,
		commands:    commands,
		schedulerID: schedulerID,
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laqista_report_attempts_total",
			Help: "Total number of Report RPC attempts sent upward.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laqista_report_failures_total",
			Help: "Total number of Report RPC attempts that failed transport-wise.",
		}),
		failovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laqista_scheduler_failover_total",
			Help: "Total number of times this node triggered scheduler failover.",
		}),
	}
	if registry != nil {
		registry.MustRegister(r.attempts, r.failures, r.failovers)
	}
	return r
}

// Run consumes windows from sampler output and metrics from the
// middleware until ctx is cancelled, sending a Report for every
// incoming window. Cancellation aborts the loop and returns; it is the
// caller's responsibility to cancel the sampler's own context too
// (§4.4's "aborts its sampler task" rule is implemented by the daemon
// owning one shared context for both).
func (r *Reporter) Run(ctx context.Context, windows <-chan stats.MonitorWindow, metrics <-chan AppMetric) {
	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-windows:
			if !ok {
				return
			}
			r.reportOne(ctx, w, metrics)
		}
	}
}

func (r *Reporter) reportOne(ctx context.Context, w stats.MonitorWindow, metrics <-chan AppMetric) {
	drained := drainAvailable(metrics)
	appLatencies := make(map[string]float64, len(drained))
	for _, m := range drained {
		appLatencies[m.Rpc.String()] = float64(m.Elapsed.Microseconds()) / 1000.0
	}

	req := &rpc.ReportRequest{
		Server:       r.self,
		Windows:      []rpc.Window{rpc.ToWindow(w)},
		AppLatencies: appLatencies,
	}

	reply, err := r.sendWithRetry(ctx, req)
	if err != nil {
		r.handleUnreachable(ctx)
		return
	}
	if reply.Cluster != nil && cluster.Differs(r.cached, *reply.Cluster) {
		r.cached = *reply.Cluster
	}
}

// sendWithRetry implements the "retry up to 3 times with 200ms
// backoff" rule of §4.4.
func (r *Reporter) sendWithRetry(ctx context.Context, req *rpc.ReportRequest) (*rpc.ReportReply, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		r.attempts.Inc()
		reply, err := r.client.Report(ctx, req)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		r.failures.Inc()
		klog.V(2).InfoS("reporter: Report attempt failed", "attempt", attempt+1, "err", err)

		if attempt < retryAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
	}
	return nil, lastErr
}

// handleUnreachable treats the scheduler as dead: it takes the last
// cached ClusterState, removes the scheduler's server from it, and
// runs the election of §4.6, emitting a StateCommand to the daemon.
func (r *Reporter) handleUnreachable(ctx context.Context) {
	r.failovers.Inc()
	dead := r.schedulerID()
	survivors := cluster.WithoutServer(r.cached.Servers, dead.ID)

	winner, ok := cluster.Elect(survivors)
	if !ok {
		klog.InfoS("reporter: scheduler unreachable and no survivors to elect from")
		return
	}

	var cmd StateCommand
	if winner.ID == r.self.ID {
		next := r.cached
		next.Servers = survivors
		next.Group = &cluster.Group{Scheduler: winner}
		cmd = StateCommand{BecomeScheduler: &next}
	} else {
		cmd = StateCommand{JoinAddr: winner.Addr}
	}

	select {
	case r.commands <- cmd:
	case <-ctx.Done():
	}
}
