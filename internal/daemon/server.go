package daemon

import (
	"context"
	"time"

	"github.com/laqista-io/laqista/internal/cluster"
	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/rpc"
	"github.com/laqista-io/laqista/internal/store"
)

// daemonServer implements laqista.ServerDaemon. Every tier registers
// one instance alongside whichever Scheduler dispatcher (if any) it
// also serves in the same state-run. Grounded on
// _examples/original_source/src/server/server.rs's ServerDaemon impl;
// generalized from its mostly-stub method bodies into real behavior
// backed by live daemon state (GetInfo/Monitor) and the local bundle
// store (Spawn/Destroy).
type daemonServer struct {
	self      core.ServerInfo
	kind      func() Kind
	group     func() (cluster.Group, bool)
	history   *windowHistory
	store     *store.Store
	survivors func() []core.ServerInfo
}

func (s *daemonServer) GetInfo(context.Context, *rpc.GetInfoRequest) (*rpc.GetInfoReply, error) {
	return &rpc.GetInfoReply{Server: s.self, Layer: s.kind().String()}, nil
}

func (s *daemonServer) Ping(context.Context, *rpc.PingRequest) (*rpc.PingReply, error) {
	return &rpc.PingReply{Alive: true}, nil
}

// Nominate lets a peer cross-check its own independently-computed
// election winner (§4.6): this node recomputes the same deterministic
// election over whatever survivor set it can itself see, and accepts
// the nomination iff it agrees.
func (s *daemonServer) Nominate(ctx context.Context, req *rpc.NominateRequest) (*rpc.NominateReply, error) {
	survivors := s.survivors()
	if len(survivors) == 0 {
		return &rpc.NominateReply{Accepted: true}, nil
	}
	winner, ok := cluster.Elect(survivors)
	return &rpc.NominateReply{Accepted: ok && winner.ID == req.Candidate.ID}, nil
}

func (s *daemonServer) Monitor(ctx context.Context, req *rpc.MonitorRequest) (*rpc.MonitorReply, error) {
	since := time.Unix(0, req.Since)
	windows := s.history.since(since)
	out := make([]rpc.Window, 0, len(windows))
	for _, w := range windows {
		out = append(out, rpc.ToWindow(w))
	}
	return &rpc.MonitorReply{Windows: out}, nil
}

// Spawn lazily prepares local serving for a deployment broadcast by
// Deploy: if this node has not already fetched the bundle, it fetches
// and indexes it now so a subsequent Lookup that routes here finds it
// ready.
func (s *daemonServer) Spawn(ctx context.Context, req *rpc.SpawnRequest) (*rpc.SpawnReply, error) {
	if _, ok := s.store.InfoByID(req.Deployment); ok {
		return &rpc.SpawnReply{Accepted: true}, nil
	}
	info := core.DeploymentInfo{ID: req.Deployment, SourceURL: req.SourceURL}
	if err := s.store.Insert(ctx, info); err != nil {
		return nil, err
	}
	return &rpc.SpawnReply{Accepted: true}, nil
}

// Destroy removes a locally-spawned deployment's bundle. This is
// node-local instance cleanup, not the cluster-wide undeploy spec §3
// declares out of scope.
func (s *daemonServer) Destroy(ctx context.Context, req *rpc.DestroyRequest) (*rpc.DestroyReply, error) {
	if err := s.store.Remove(req.Deployment); err != nil {
		return nil, err
	}
	return &rpc.DestroyReply{Removed: true}, nil
}

var _ rpc.ServerDaemonServer = (*daemonServer)(nil)
