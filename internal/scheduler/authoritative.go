package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/cluster"
	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/placement"
	"github.com/laqista-io/laqista/internal/rpc"
	"github.com/laqista-io/laqista/internal/stats"
	"github.com/laqista-io/laqista/internal/store"
)

// DaemonDialer opens a ServerDaemonClient to addr, used by Deploy to
// broadcast Spawn to every other member. Production wiring dials a
// real grpc.ClientConn with default call options, which pick up the
// JSON codec rpc registers under grpc's default codec name; tests
// substitute an in-process fake.
type DaemonDialer func(addr string) (rpc.ServerDaemonClient, error)

// Authoritative is the cloud-tier dispatcher: the sole node in a
// cluster that owns canonical membership, deployment catalogue, and
// cluster-wide stats. Grounded on
// _examples/original_source/src/scheduler/fog.rs's FogScheduler shape,
// generalized to the authoritative node's wider rpc surface (Join,
// Deploy, GetApps in addition to Report/Lookup).
type Authoritative struct {
	self     core.ServerInfo
	registry *cluster.Registry
	statsMap *stats.StatsMap
	appsMap  *stats.AppsMap
	store    *store.Store
	policy   placement.Policy
	dial     DaemonDialer
}

// NewAuthoritative builds an Authoritative dispatcher rooted at self.
// It uses registry as given and does not bootstrap it: the caller
// either calls registry.Bootstrap(self) first or passes a registry
// already seeded from an election.
func NewAuthoritative(self core.ServerInfo, registry *cluster.Registry, statsMap *stats.StatsMap, appsMap *stats.AppsMap, st *store.Store, policy placement.Policy, dial DaemonDialer) *Authoritative {
	return &Authoritative{
		self:     self,
		registry: registry,
		statsMap: statsMap,
		appsMap:  appsMap,
		store:    st,
		policy:   policy,
		dial:     dial,
	}
}

func (a *Authoritative) Join(ctx context.Context, req *rpc.JoinRequest) (*rpc.JoinReply, error) {
	group := a.registry.Join(req.Server)
	a.statsMap.Join(req.Server)
	return &rpc.JoinReply{Group: group}, nil
}

func (a *Authoritative) Report(ctx context.Context, req *rpc.ReportRequest) (*rpc.ReportReply, error) {
	windows := make([]stats.MonitorWindow, 0, len(req.Windows))
	for _, w := range req.Windows {
		windows = append(windows, rpc.FromWindow(w))
	}
	a.statsMap.Append(req.Server, windows...)

	infoByName := a.store.ListByNames()
	for path, ms := range req.AppLatencies {
		r, err := core.ParseAppRpc(path)
		if err != nil {
			// InvalidPath: drop just the offending entry, keep going (§7).
			klog.V(2).InfoS("authoritative: dropping malformed rpc path in Report", "path", path, "err", err)
			continue
		}
		info, ok := infoByName[r.Package]
		if !ok {
			klog.V(2).InfoS("authoritative: Report references unknown app", "package", r.Package)
			continue
		}
		al := a.appsMap.GetOrInsert(r.Service(), req.Server.ID, info)
		al.Insert(r, time.Duration(ms*float64(time.Millisecond)))
	}

	snapshot := a.registry.Snapshot()
	return &rpc.ReportReply{Success: true, Cluster: &snapshot}, nil
}

func (a *Authoritative) Deploy(ctx context.Context, req *rpc.DeployRequest) (*rpc.DeployReply, error) {
	rpcs := make([]core.AppRpc, 0, len(req.Rpcs))
	for _, path := range req.Rpcs {
		r, err := core.ParseAppRpc(path)
		if err != nil {
			return nil, err
		}
		rpcs = append(rpcs, r)
	}
	accuracies := make(map[core.AppRpc]float64, len(req.AccuraciesPercent))
	for path, pct := range req.AccuraciesPercent {
		r, err := core.ParseAppRpc(path)
		if err != nil {
			return nil, err
		}
		accuracies[r] = pct
	}

	info := core.NewDeploymentInfo(uuid.New(), req.Name, req.SourceURL, rpcs, accuracies)
	if err := a.store.Insert(ctx, info); err != nil {
		return nil, err
	}

	a.broadcastSpawn(ctx, info)

	return &rpc.DeployReply{Deployment: info}, nil
}

// broadcastSpawn asks every other member to lazily prepare local
// serving for a freshly deployed bundle. Per-peer failures are logged
// and otherwise ignored: Deploy's reply only promises the catalogue
// entry exists, not that every peer has finished spawning it.
func (a *Authoritative) broadcastSpawn(ctx context.Context, info core.DeploymentInfo) {
	if a.dial == nil {
		return
	}
	snapshot := a.registry.Snapshot()
	for _, server := range snapshot.Servers {
		if server.ID == a.self.ID {
			continue
		}
		client, err := a.dial(server.Addr)
		if err != nil {
			klog.ErrorS(err, "authoritative: dial peer for spawn broadcast failed", "server", server)
			continue
		}
		req := &rpc.SpawnRequest{Deployment: info.ID, SourceURL: info.SourceURL}
		if _, err := client.Spawn(ctx, req); err != nil {
			klog.ErrorS(err, "authoritative: spawn broadcast failed", "server", server)
			continue
		}
		a.registry.AddInstance(cluster.AppInstanceLocation{Deployment: info.ID, Server: server})
	}
}

func (a *Authoritative) Lookup(ctx context.Context, req *rpc.LookupRequest) (*rpc.LookupReply, error) {
	return schedule(a.store, a.statsMap, a.appsMap, a.policy, req)
}

func (a *Authoritative) GetApps(ctx context.Context, req *rpc.GetAppsRequest) (*rpc.GetAppsReply, error) {
	byName := a.store.ListByNames()
	var out []core.DeploymentInfo
	if len(req.Names) == 0 {
		for _, info := range byName {
			out = append(out, info)
		}
	} else {
		for _, name := range req.Names {
			if info, ok := byName[name]; ok {
				out = append(out, info)
			}
		}
	}
	return &rpc.GetAppsReply{Deployments: out}, nil
}

// schedule is the Lookup logic shared by the Authoritative and Fog
// dispatchers: resolve name to a DeploymentInfo, then hand the
// service, current stats, and QoS to the placement policy.
func schedule(st *store.Store, statsMap *stats.StatsMap, appsMap *stats.AppsMap, policy placement.Policy, req *rpc.LookupRequest) (*rpc.LookupReply, error) {
	info, ok := st.Lookup(req.Name)
	if !ok {
		return nil, core.NewError(core.KindUnknownDeployment, "deployment %q not indexed", req.Name)
	}
	service, err := core.ParseAppService(req.Service)
	if err != nil {
		return nil, err
	}

	servers := statsMap.Snapshot()
	apps := appsMap.Snapshot(service)
	qos := rpc.FromQoS(req.Qos)

	placed, ok := policy.Schedule(service, info, servers, apps, qos)
	if !ok {
		return nil, core.NewError(core.KindNoPlacement, "no candidate satisfies lookup for %s", service)
	}
	return &rpc.LookupReply{Server: placed.Server, Rpc: placed.Rpc.String(), NeedsScaleOut: placed.NeedsScaleOut}, nil
}

var _ rpc.SchedulerServer = (*Authoritative)(nil)
