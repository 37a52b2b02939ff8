package daemon

import (
	"context"
	"fmt"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/cluster"
	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/placement"
	"github.com/laqista-io/laqista/internal/reporter"
	"github.com/laqista-io/laqista/internal/rpc"
	"github.com/laqista-io/laqista/internal/scheduler"
	"github.com/laqista-io/laqista/internal/stats"
	"github.com/laqista-io/laqista/internal/store"
	"github.com/laqista-io/laqista/internal/telemetry"
)

// Config bundles everything a Daemon needs to run a node for its
// entire lifetime, independent of which State it currently occupies.
type Config struct {
	Self          core.ServerInfo
	Layer         string // "cloud", "fog", or "dew", as given at startup
	BootstrapAddr string // empty only for an unbootstrapped cloud node
	Listen        string

	Store    *store.Store
	Policy   placement.Policy
	Sampler  telemetry.Sampler
	Registry *prometheus.Registry

	DialScheduler func(addr string) (rpc.SchedulerClient, error)
	DialDaemon    scheduler.DaemonDialer
}

// Daemon owns the per-node lifecycle loop and the one shared command
// channel every state-run's Reporter feeds on scheduler failure.
// Grounded on _examples/original_source/src/server/run.rs's
// ServerRunner; the cancellation-token-governed restart there becomes
// one context.WithCancel per state-run here, canceled on every
// transition so the sampler and reporter goroutines it started are
// never leaked across a state change.
type Daemon struct {
	cfg      Config
	commands chan reporter.StateCommand
	history  *windowHistory
}

func New(cfg Config) *Daemon {
	return &Daemon{
		cfg:      cfg,
		commands: make(chan reporter.StateCommand, 1),
		history:  newWindowHistory(),
	}
}

// initialState mirrors ServerRunner::determine_state: fog and dew
// always start pointed at their configured parent; a cloud node either
// joins a bootstrap address or, absent one, begins life as the
// cluster's sole Authoritative member.
func (d *Daemon) initialState() State {
	switch d.cfg.Layer {
	case "fog":
		return State{Kind: KindFog, BootstrapAddr: d.cfg.BootstrapAddr}
	case "dew":
		return State{Kind: KindDew, BootstrapAddr: d.cfg.BootstrapAddr}
	default:
		if d.cfg.BootstrapAddr != "" {
			return State{Kind: KindJoining, BootstrapAddr: d.cfg.BootstrapAddr}
		}
		return State{Kind: KindAuthoritative}
	}
}

// Run drives the state machine until ctx is canceled or a state-run
// returns a terminal error.
func (d *Daemon) Run(ctx context.Context) error {
	state := d.initialState()
	for {
		next, err := d.runState(ctx, state)
		if err != nil {
			return err
		}
		state = next
	}
}

func (d *Daemon) runState(ctx context.Context, state State) (State, error) {
	switch state.Kind {
	case KindJoining:
		return d.joinCluster(ctx, state)
	case KindCloud, KindFog, KindDew, KindAuthoritative:
		return d.serve(ctx, state)
	default:
		return State{}, fmt.Errorf("daemon: node reached Failed state")
	}
}

// joinCluster is the Joining state: it never starts a listener of its
// own, matching the reference loop, where join_cluster resolves
// straight into the next state without serving anything.
func (d *Daemon) joinCluster(ctx context.Context, state State) (State, error) {
	client, err := d.cfg.DialScheduler(state.BootstrapAddr)
	if err != nil {
		return State{}, fmt.Errorf("daemon: dial bootstrap %s: %w", state.BootstrapAddr, err)
	}
	reply, err := client.Join(ctx, &rpc.JoinRequest{Server: d.cfg.Self})
	if err != nil {
		return State{}, fmt.Errorf("daemon: join %s: %w", state.BootstrapAddr, err)
	}
	klog.InfoS("daemon: joined cluster", "bootstrap", state.BootstrapAddr, "scheduler", reply.Group.Scheduler)
	return State{Kind: KindCloud, Group: reply.Group}, nil
}

// tier bundles the pieces buildTier assembles that vary per Kind: the
// Scheduler dispatcher to register (nil for Cloud, which serves no
// Scheduler rpcs of its own), the client the Reporter sends Report to
// (nil for Authoritative, which has no upstream to report to), and the
// accessors daemonServer needs to answer GetInfo/Nominate live.
type tier struct {
	schedulerServer rpc.SchedulerServer
	reporterClient  rpc.SchedulerClient
	schedulerID     func() core.ServerInfo
	survivors       func() []core.ServerInfo
	group           func() (cluster.Group, bool)
}

func (d *Daemon) buildTier(ctx context.Context, state State) (tier, error) {
	switch state.Kind {
	case KindCloud:
		client, err := d.cfg.DialScheduler(state.Group.Scheduler.Addr)
		if err != nil {
			return tier{}, fmt.Errorf("daemon: dial scheduler %s: %w", state.Group.Scheduler.Addr, err)
		}
		return tier{
			reporterClient: client,
			schedulerID:    func() core.ServerInfo { return state.Group.Scheduler },
			survivors:      func() []core.ServerInfo { return []core.ServerInfo{state.Group.Scheduler, d.cfg.Self} },
			group:          func() (cluster.Group, bool) { return state.Group, true },
		}, nil

	case KindFog, KindDew:
		parent, err := d.resolveParent(ctx, state.BootstrapAddr)
		if err != nil {
			return tier{}, err
		}
		client, err := d.cfg.DialScheduler(state.BootstrapAddr)
		if err != nil {
			return tier{}, fmt.Errorf("daemon: dial parent %s: %w", state.BootstrapAddr, err)
		}
		fog := scheduler.NewFog(d.cfg.Self, parent, stats.NewStatsMap(), stats.NewAppsMap(), d.cfg.Store, d.cfg.Policy, client)
		return tier{
			schedulerServer: fog,
			reporterClient:  client,
			schedulerID:     func() core.ServerInfo { return parent },
			survivors:       func() []core.ServerInfo { return []core.ServerInfo{parent, d.cfg.Self} },
			group:           func() (cluster.Group, bool) { return cluster.Group{}, false },
		}, nil

	case KindAuthoritative:
		var registry *cluster.Registry
		if state.Seed != nil {
			registry = cluster.NewRegistryFromState(*state.Seed)
		} else {
			registry = cluster.NewRegistry()
			registry.Bootstrap(d.cfg.Self)
		}
		a := scheduler.NewAuthoritative(d.cfg.Self, registry, stats.NewStatsMap(), stats.NewAppsMap(), d.cfg.Store, d.cfg.Policy, d.cfg.DialDaemon)
		return tier{
			schedulerServer: a,
			survivors:       func() []core.ServerInfo { return registry.Snapshot().Servers },
			group: func() (cluster.Group, bool) {
				snap := registry.Snapshot()
				if snap.Group == nil {
					return cluster.Group{}, false
				}
				return *snap.Group, true
			},
		}, nil

	default:
		return tier{}, fmt.Errorf("daemon: unhandled tier kind %s", state.Kind)
	}
}

// resolveParent learns the parent's ServerInfo (its id, not just its
// configured address) by calling its GetInfo rpc, so the Nominate
// cross-check and Fog's own reporting carry a real identity rather
// than a zero-UUID placeholder.
func (d *Daemon) resolveParent(ctx context.Context, addr string) (core.ServerInfo, error) {
	client, err := d.cfg.DialDaemon(addr)
	if err != nil {
		return core.ServerInfo{}, fmt.Errorf("daemon: dial parent daemon %s: %w", addr, err)
	}
	reply, err := client.GetInfo(ctx, &rpc.GetInfoRequest{})
	if err != nil {
		return core.ServerInfo{}, fmt.Errorf("daemon: GetInfo on parent %s: %w", addr, err)
	}
	return reply.Server, nil
}

// serve runs one state-run: it starts a grpc.Server registering
// ServerDaemon (always) and Scheduler (when the tier has one), starts
// the telemetry sampler and Reporter (when the tier has an upstream to
// report to), and blocks until ctx is canceled, a StateCommand arrives
// from the Reporter, or the grpc server itself exits. Every goroutine
// it starts shares runCtx, so a single cancel() tears all of them down
// together — the Go expression of the reference loop's
// CancellationToken.cancel() on every transition.
func (d *Daemon) serve(ctx context.Context, state State) (State, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	t, err := d.buildTier(runCtx, state)
	if err != nil {
		return State{}, err
	}

	mw := reporter.NewMiddleware()
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(mw.Interceptor()))

	daemonSrv := &daemonServer{
		self:      d.cfg.Self,
		kind:      func() Kind { return state.Kind },
		group:     t.group,
		history:   d.history,
		store:     d.cfg.Store,
		survivors: t.survivors,
	}
	rpc.RegisterServerDaemonServer(grpcServer, daemonSrv)
	if t.schedulerServer != nil {
		rpc.RegisterSchedulerServer(grpcServer, t.schedulerServer)
	}

	lis, err := net.Listen("tcp", d.cfg.Listen)
	if err != nil {
		return State{}, fmt.Errorf("daemon: listen %s: %w", d.cfg.Listen, err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- grpcServer.Serve(lis) }()

	if t.reporterClient != nil {
		rep := reporter.NewReporter(d.cfg.Self, t.reporterClient, t.schedulerID, d.commands, d.cfg.Registry)
		windows := d.cfg.Sampler.Run(runCtx)
		tee := make(chan stats.MonitorWindow, 1)
		go d.teeWindows(runCtx, windows, tee)
		go rep.Run(runCtx, tee, mw.Metrics())
	}

	klog.InfoS("daemon: serving", "state", state.Kind, "listen", d.cfg.Listen)

	select {
	case <-ctx.Done():
		grpcServer.GracefulStop()
		return State{}, ctx.Err()
	case cmd := <-d.commands:
		cancel()
		grpcServer.GracefulStop()
		<-serveErr
		return applyCommand(cmd), nil
	case serr := <-serveErr:
		cancel()
		if serr != nil {
			return State{}, fmt.Errorf("daemon: grpc server exited: %w", serr)
		}
		return state, nil
	}
}

// teeWindows forwards every sampled window both into this node's own
// Monitor history and onward to the Reporter, so Monitor can answer
// for windows the Reporter has already consumed and cleared.
func (d *Daemon) teeWindows(ctx context.Context, in <-chan stats.MonitorWindow, out chan<- stats.MonitorWindow) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-in:
			if !ok {
				return
			}
			d.history.record(w)
			select {
			case out <- w:
			case <-ctx.Done():
				return
			}
		}
	}
}

// applyCommand turns a Reporter's failover decision into the next
// State: either this node becomes Authoritative seeded from the
// cluster view the Reporter last cached, or it returns to Joining
// against whichever peer won instead.
func applyCommand(cmd reporter.StateCommand) State {
	if cmd.BecomeScheduler != nil {
		return State{Kind: KindAuthoritative, Seed: cmd.BecomeScheduler}
	}
	return State{Kind: KindJoining, BootstrapAddr: cmd.JoinAddr}
}
