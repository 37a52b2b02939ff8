// Package scheduler implements the three RPC dispatchers that sit
// behind laqista.Scheduler depending on a node's current tier: Uninit
// during the Joining transition, Authoritative at the cloud tier, and
// Fog at the fog/dew tier. Grounded on
// _examples/original_source/src/scheduler/{uninit,fog}.rs, adapted
// from tonic's async_trait dispatch to plain Go methods on
// rpc.SchedulerServer.
package scheduler

import (
	"context"

	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/rpc"
)

// Uninit rejects every call with NotInitialised. A node runs behind
// this dispatcher while it is in the Joining state, before it knows
// whether it will end up Cloud, Fog, or Authoritative.
type Uninit struct{}

func NewUninit() *Uninit {
	return &Uninit{}
}

func (u *Uninit) Join(context.Context, *rpc.JoinRequest) (*rpc.JoinReply, error) {
	return nil, core.NewError(core.KindNotInitialised, "node has not completed joining yet")
}

func (u *Uninit) Report(context.Context, *rpc.ReportRequest) (*rpc.ReportReply, error) {
	return nil, core.NewError(core.KindNotInitialised, "node has not completed joining yet")
}

func (u *Uninit) Deploy(context.Context, *rpc.DeployRequest) (*rpc.DeployReply, error) {
	return nil, core.NewError(core.KindNotInitialised, "node has not completed joining yet")
}

func (u *Uninit) Lookup(context.Context, *rpc.LookupRequest) (*rpc.LookupReply, error) {
	return nil, core.NewError(core.KindNotInitialised, "node has not completed joining yet")
}

func (u *Uninit) GetApps(context.Context, *rpc.GetAppsRequest) (*rpc.GetAppsReply, error) {
	return nil, core.NewError(core.KindNotInitialised, "node has not completed joining yet")
}

var _ rpc.SchedulerServer = (*Uninit)(nil)
