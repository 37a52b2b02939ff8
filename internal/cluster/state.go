// Package cluster holds the authoritative view of cluster membership:
// the ClusterState snapshot exchanged on Join/Report, the diffing
// predicate that decides when a follower's cached snapshot is stale,
// and the deterministic election used when the scheduler dies.
package cluster

import (
	"sort"

	"github.com/google/uuid"

	"github.com/laqista-io/laqista/internal/core"
)

// Group names the current scheduler. A ClusterState with no elected
// scheduler yet (during Joining) has a nil Group.
type Group struct {
	Scheduler core.ServerInfo `json:"scheduler"`
}

// AppInstanceLocation records where a deployment's spawn request
// landed. Only its presence (count) participates in diffing; content
// equality across instances is never compared (see Differs).
type AppInstanceLocation struct {
	Deployment uuid.UUID       `json:"deployment"`
	Server     core.ServerInfo `json:"server"`
}

// State is the full snapshot exchanged between scheduler and followers
// on Join/Report. Invariant: if Group is non-nil, Group.Scheduler must
// be a member of Servers; removing a server that is the scheduler
// forces re-election (see Elect).
type State struct {
	Group     *Group                 `json:"group,omitempty"`
	Servers   []core.ServerInfo      `json:"servers"`
	Instances []AppInstanceLocation  `json:"instances"`
}

// serverIDSet reduces a server list to its id set, order-insensitive,
// for the membership comparison in Differs.
func serverIDSet(servers []core.ServerInfo) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(servers))
	for _, s := range servers {
		out[s.ID] = struct{}{}
	}
	return out
}

// Differs implements §4.5: two states differ iff the scheduler
// identity changed (or exactly one has a group), the server id sets
// differ, or the instance counts differ. It does not compare raw
// window content. The predicate inspects both arguments the same way,
// so Differs(a, b) == Differs(b, a), and a state never differs from
// itself.
func Differs(a, b State) bool {
	switch {
	case (a.Group == nil) != (b.Group == nil):
		return true
	case a.Group != nil && b.Group != nil && a.Group.Scheduler.ID != b.Group.Scheduler.ID:
		return true
	}

	setA, setB := serverIDSet(a.Servers), serverIDSet(b.Servers)
	if len(setA) != len(setB) {
		return true
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return true
		}
	}

	return len(a.Instances) != len(b.Instances)
}

// Elect deterministically picks the UUID-lexicographically-minimum
// survivor as the new scheduler. Every peer runs this independently on
// the identical surviving set and converges without coordination.
// Elect returns false if survivors is empty (nothing to elect).
func Elect(survivors []core.ServerInfo) (core.ServerInfo, bool) {
	if len(survivors) == 0 {
		return core.ServerInfo{}, false
	}
	sorted := make([]core.ServerInfo, len(survivors))
	copy(sorted, survivors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted[0], true
}

// WithoutServer returns state's server list with id removed, for
// building the survivor set fed to Elect after a scheduler is declared
// dead.
func WithoutServer(servers []core.ServerInfo, id uuid.UUID) []core.ServerInfo {
	out := make([]core.ServerInfo, 0, len(servers))
	for _, s := range servers {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
