package scheduler

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/placement"
	"github.com/laqista-io/laqista/internal/rpc"
	"github.com/laqista-io/laqista/internal/stats"
	"github.com/laqista-io/laqista/internal/store"
)

// Fog is the fog/dew-tier dispatcher (the Open Question on unifying
// Dew behind Fog is resolved in DESIGN.md): it owns only its own
// node's stats and whatever apps its local store has indexed, and
// forwards any lookup it cannot satisfy locally to its configured
// cloud parent unmodified. It does not fetch the cloud's catalogue at
// startup; no GetApps call is made to the parent. Grounded on
// _examples/original_source/src/scheduler/fog.rs's FogScheduler.
type Fog struct {
	self        core.ServerInfo
	cloudParent core.ServerInfo
	statsMap    *stats.StatsMap
	appsMap     *stats.AppsMap
	store       *store.Store
	policy      placement.Policy
	cloudClient rpc.SchedulerClient
}

// NewFog builds a Fog dispatcher whose local StatsMap carries only
// self's own entry; cloudClient is the SchedulerClient dialed against
// cloudParent's address for delegation.
func NewFog(self, cloudParent core.ServerInfo, statsMap *stats.StatsMap, appsMap *stats.AppsMap, st *store.Store, policy placement.Policy, cloudClient rpc.SchedulerClient) *Fog {
	statsMap.Join(self)
	return &Fog{
		self:        self,
		cloudParent: cloudParent,
		statsMap:    statsMap,
		appsMap:     appsMap,
		store:       st,
		policy:      policy,
		cloudClient: cloudClient,
	}
}

func (f *Fog) Join(context.Context, *rpc.JoinRequest) (*rpc.JoinReply, error) {
	return nil, core.NewError(core.KindNotSupported, "fog node does not support join")
}

func (f *Fog) Report(ctx context.Context, req *rpc.ReportRequest) (*rpc.ReportReply, error) {
	windows := make([]stats.MonitorWindow, 0, len(req.Windows))
	for _, w := range req.Windows {
		windows = append(windows, rpc.FromWindow(w))
	}
	f.statsMap.Append(req.Server, windows...)

	infoByName := f.store.ListByNames()
	for path, ms := range req.AppLatencies {
		r, err := core.ParseAppRpc(path)
		if err != nil {
			klog.V(2).InfoS("fog: dropping malformed rpc path in Report", "path", path, "err", err)
			continue
		}
		info, ok := infoByName[r.Package]
		if !ok {
			continue
		}
		al := f.appsMap.GetOrInsert(r.Service(), req.Server.ID, info)
		al.Insert(r, time.Duration(ms*float64(time.Millisecond)))
	}

	// A fog node never carries a cluster-wide ClusterState to hand
	// back; its reporters keep whatever snapshot they already cached.
	return &rpc.ReportReply{Success: true}, nil
}

func (f *Fog) Deploy(context.Context, *rpc.DeployRequest) (*rpc.DeployReply, error) {
	return nil, core.NewError(core.KindNotSupported, "fog node does not support deploy")
}

// Lookup attempts placement against the fog's own single-node stats
// first. If that yields no candidate, the unmodified request is
// forwarded to the cloud parent and its reply returned verbatim (the
// "fog delegation rule").
func (f *Fog) Lookup(ctx context.Context, req *rpc.LookupRequest) (*rpc.LookupReply, error) {
	reply, err := schedule(f.store, f.statsMap, f.appsMap, f.policy, req)
	if err == nil {
		return reply, nil
	}
	if f.cloudClient == nil {
		return nil, err
	}
	return f.cloudClient.Lookup(ctx, req)
}

func (f *Fog) GetApps(context.Context, *rpc.GetAppsRequest) (*rpc.GetAppsReply, error) {
	return nil, core.NewError(core.KindNotSupported, "fog node does not support get_apps")
}

var _ rpc.SchedulerServer = (*Fog)(nil)
