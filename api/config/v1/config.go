// Package v1 holds the daemon's own bootstrap configuration: the
// fields a `laqista-server` process needs before it can construct an
// internal/daemon.Config and start serving. It keeps the teacher's
// plain-struct-with-json/yaml-tags idiom from its own api/config/v1
// package, applied to a different shape of config.
package v1

import "fmt"

// Layer names which tier a node starts as.
type Layer string

const (
	LayerCloud Layer = "cloud"
	LayerFog   Layer = "fog"
	LayerDew   Layer = "dew"
)

// Config is the top-level bootstrap configuration for one laqista-server
// process, loadable from YAML via sigs.k8s.io/yaml and overridable by
// cmd/laqista-server's cli flags.
type Config struct {
	// ID is this node's identity. If unset, cmd/laqista-server
	// generates a fresh one at every start; it is not persisted.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
	// Listen is the address this node's grpc.Server binds.
	Listen string `json:"listen" yaml:"listen"`
	// Layer is this node's starting tier.
	Layer Layer `json:"layer" yaml:"layer"`
	// Bootstrap is the address of an existing cluster member to join
	// (cloud) or the configured parent to report/delegate to (fog, dew).
	// Empty for a cloud node starting its own cluster.
	Bootstrap string `json:"bootstrap,omitempty" yaml:"bootstrap,omitempty"`
	// DataPath is the directory the bundle store scans, fetches into,
	// and watches for on-disk deployment changes.
	DataPath string `json:"dataPath" yaml:"dataPath"`
	// Policy names the placement policy this node schedules with:
	// "mean_latency" (default) or "round_robin".
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`
	// InitialApps lists deployment bundle URLs to fetch and index at
	// startup, ahead of any Deploy rpc.
	InitialApps []string `json:"initialApps,omitempty" yaml:"initialApps,omitempty"`
}

// Validate checks the fields Config needs populated before a Daemon
// can be constructed from it.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen address is required")
	}
	switch c.Layer {
	case LayerCloud, LayerFog, LayerDew:
	default:
		return fmt.Errorf("config: unknown layer %q", c.Layer)
	}
	if c.Layer != LayerCloud && c.Bootstrap == "" {
		return fmt.Errorf("config: %s layer requires a bootstrap address", c.Layer)
	}
	if c.DataPath == "" {
		return fmt.Errorf("config: dataPath is required")
	}
	return nil
}

// GetDefaultConfig returns a Config with every field set to the
// values a single unbootstrapped cloud node should start with.
func GetDefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:50051",
		Layer:    LayerCloud,
		DataPath: ".laqista",
		Policy:   "mean_latency",
	}
}
