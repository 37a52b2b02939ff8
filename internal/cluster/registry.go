package cluster

import (
	"sync"

	"github.com/google/uuid"

	"github.com/laqista-io/laqista/internal/core"
)

// Registry is the authoritative node's single coarse lock over cluster
// membership, per §5: handlers clone the inner state under the lock,
// release it, compute on the clone, then re-acquire to write back.
// This mirrors the teacher's CapacityManager discipline (one mutex
// guarding a map-of-maps) applied to server membership instead of
// per-node GPU capacity.
type Registry struct {
	mu    sync.Mutex
	group *Group
	byID  map[uuid.UUID]core.ServerInfo

	instances []AppInstanceLocation
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[uuid.UUID]core.ServerInfo)}
}

// NewRegistryFromState rebuilds a Registry from a previously-cached
// State, used when a node wins the election of §4.6 and must resume
// serving from the cluster view its reporter last observed rather
// than an empty bootstrap.
func NewRegistryFromState(s State) *Registry {
	r := NewRegistry()
	for _, srv := range s.Servers {
		r.byID[srv.ID] = srv
	}
	if s.Group != nil {
		g := *s.Group
		r.group = &g
	}
	r.instances = append(r.instances, s.Instances...)
	return r
}

// Bootstrap seeds the registry with self as the first server and the
// initial scheduler, used when a node starts as Authoritative with no
// bootstrap address.
func (r *Registry) Bootstrap(self core.ServerInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[self.ID] = self
	r.group = &Group{Scheduler: self}
}

// Join inserts server into membership, creating it if absent. Returns
// the current group so the caller can reply with the joiner's
// scheduler identity.
func (r *Registry) Join(server core.ServerInfo) Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[server.ID] = server
	if r.group == nil {
		r.group = &Group{Scheduler: server}
	}
	return *r.group
}

// Remove drops a server from membership. If it was the scheduler, the
// group is cleared; the caller is expected to run Elect next and call
// SetScheduler with the result.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	if r.group != nil && r.group.Scheduler.ID == id {
		r.group = nil
	}
}

// SetScheduler installs server as the elected scheduler. server must
// already be a member.
func (r *Registry) SetScheduler(server core.ServerInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.group = &Group{Scheduler: server}
}

// AddInstance records a new AppInstanceLocation from a Deploy spawn
// broadcast.
func (r *Registry) AddInstance(loc AppInstanceLocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = append(r.instances, loc)
}

// Snapshot clones the current state under the lock and releases it
// immediately, per the concurrency model's clone-then-compute
// discipline.
func (r *Registry) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	servers := make([]core.ServerInfo, 0, len(r.byID))
	for _, s := range r.byID {
		servers = append(servers, s)
	}
	instances := make([]AppInstanceLocation, len(r.instances))
	copy(instances, r.instances)

	var group *Group
	if r.group != nil {
		g := *r.group
		group = &g
	}
	return State{Group: group, Servers: servers, Instances: instances}
}

// Contains reports whether id is a current member.
func (r *Registry) Contains(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[id]
	return ok
}
