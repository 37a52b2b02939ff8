// Package daemon implements the per-node lifecycle state machine (H):
// {Joining, Cloud, Fog, Dew, Authoritative, Failed}, and the
// laqista.ServerDaemon rpc surface every tier exposes regardless of
// which Scheduler dispatcher (if any) sits alongside it. Grounded on
// _examples/original_source/src/server/run.rs's ServerRunner loop.
package daemon

import "github.com/laqista-io/laqista/internal/cluster"

// Kind names a node's current lifecycle state.
type Kind int

const (
	KindJoining Kind = iota
	KindCloud
	KindFog
	KindDew
	KindAuthoritative
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindJoining:
		return "Joining"
	case KindCloud:
		return "Cloud"
	case KindFog:
		return "Fog"
	case KindDew:
		return "Dew"
	case KindAuthoritative:
		return "Authoritative"
	case KindFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// State is the tagged union DaemonState in the reference run loop
// collapses into one Go struct: only the fields relevant to Kind are
// populated.
type State struct {
	Kind Kind

	// BootstrapAddr is set for Joining, Fog, and Dew: the address to
	// join, or the configured parent to delegate/report to.
	BootstrapAddr string

	// Group is set for Cloud: the scheduler identity learned from Join.
	Group cluster.Group

	// Seed is set for Authoritative when entered via election (the
	// cluster.State the winning node should serve from immediately,
	// rather than an empty Bootstrap).
	Seed *cluster.State
}
