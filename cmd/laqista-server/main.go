package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	configv1 "github.com/laqista-io/laqista/api/config/v1"
	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/daemon"
	"github.com/laqista-io/laqista/internal/placement"
	"github.com/laqista-io/laqista/internal/rpc"
	"github.com/laqista-io/laqista/internal/store"
	"github.com/laqista-io/laqista/internal/telemetry"
)

func main() {
	klog.InitFlags(nil)
	app := &cli.App{
		Name:  "laqista-server",
		Usage: "run one node of a Laqista tiered inference cluster",
		Commands: []*cli.Command{
			{
				Name:        "server",
				Usage:       "run this node's scheduler daemon",
				Subcommands: []*cli.Command{serverStartCommand()},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		klog.ErrorS(err, "laqista-server exited")
		os.Exit(1)
	}
}

func serverStartCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "start serving as cloud, fog, or dew",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML config file; flags below override its values"},
			&cli.StringFlag{Name: "id", Usage: "this node's identity (generated if omitted)"},
			&cli.StringFlag{Name: "listen", Value: "127.0.0.1:50051", Usage: "address to bind this node's grpc.Server"},
			&cli.StringFlag{Name: "layer", Value: "cloud", Usage: "cloud, fog, or dew"},
			&cli.StringFlag{Name: "server", Usage: "bootstrap/parent address to join or report to"},
			&cli.StringFlag{Name: "data-path", Value: ".laqista", Usage: "directory the bundle store scans and watches"},
			&cli.StringFlag{Name: "scheduler", Value: "mean_latency", Usage: "mean_latency or round_robin"},
			&cli.StringFlag{Name: "gpu-backend", Usage: "nvidia, radeon, apple, or none (platform default if omitted)"},
			&cli.StringSliceFlag{Name: "initial-apps", Usage: "deployment bundle URLs to fetch and index at startup"},
			&cli.StringFlag{Name: "metrics-listen", Usage: "address to serve /metrics on (disabled if omitted)"},
		},
		Action: runServerStart,
	}
}

func runServerStart(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	self := core.ServerInfo{Addr: cfg.Listen}
	if cfg.ID != "" {
		id, err := uuid.Parse(cfg.ID)
		if err != nil {
			return fmt.Errorf("laqista-server: invalid --id %q: %w", cfg.ID, err)
		}
		self.ID = id
	} else {
		self.ID = uuid.New()
	}

	st, err := store.New(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("laqista-server: open store at %s: %w", cfg.DataPath, err)
	}
	defer st.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, url := range cfg.InitialApps {
		klog.InfoS("laqista-server: fetching initial app", "url", url)
		if err := st.Insert(ctx, core.DeploymentInfo{ID: uuid.New(), SourceURL: url}); err != nil {
			klog.ErrorS(err, "laqista-server: initial app fetch failed", "url", url)
		}
	}

	policy, err := buildPolicy(cfg.Policy)
	if err != nil {
		return err
	}

	sampler, err := telemetry.New(c.String("gpu-backend"))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	if addr := c.String("metrics-listen"); addr != "" {
		serveMetrics(ctx, addr, registry)
	}

	d := daemon.New(daemon.Config{
		Self:          self,
		Layer:         string(cfg.Layer),
		BootstrapAddr: cfg.Bootstrap,
		Listen:        cfg.Listen,
		Store:         st,
		Policy:        policy,
		Sampler:       sampler,
		Registry:      registry,
		DialScheduler: dialScheduler,
		DialDaemon:    dialDaemon,
	})

	klog.InfoS("laqista-server: starting", "id", self.ID, "layer", cfg.Layer, "listen", cfg.Listen)
	return d.Run(ctx)
}

// loadConfig builds a configv1.Config from an optional --config YAML
// file overlaid with explicit flags, the flags winning on conflict.
func loadConfig(c *cli.Context) (*configv1.Config, error) {
	cfg := configv1.GetDefaultConfig()

	if path := c.String("config"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("laqista-server: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("laqista-server: parse %s: %w", path, err)
		}
	}

	if c.IsSet("id") {
		cfg.ID = c.String("id")
	}
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("layer") {
		cfg.Layer = configv1.Layer(c.String("layer"))
	}
	if c.IsSet("server") {
		cfg.Bootstrap = c.String("server")
	}
	if c.IsSet("data-path") {
		cfg.DataPath = c.String("data-path")
	}
	if c.IsSet("scheduler") {
		cfg.Policy = c.String("scheduler")
	}
	if c.IsSet("initial-apps") {
		cfg.InitialApps = c.StringSlice("initial-apps")
	}

	return cfg, nil
}

// serveMetrics exposes registry's counters on addr until ctx is
// canceled, logging rather than failing the daemon if the listener
// itself can't be opened: metrics are observability-only, never load-
// bearing for placement or cluster membership.
func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.ErrorS(err, "laqista-server: metrics listener exited", "addr", addr)
		}
	}()
}

func buildPolicy(name string) (placement.Policy, error) {
	switch name {
	case "", "mean_latency":
		return placement.NewMeanLatencyPolicy(), nil
	case "round_robin":
		return placement.NewRoundRobinPolicy(), nil
	default:
		return nil, fmt.Errorf("laqista-server: unknown scheduler policy %q", name)
	}
}

// dialScheduler and dialDaemon both connect with insecure transport
// credentials: the cluster's wire layer (internal/rpc's JSON codec
// registered under grpc's default "proto" content-subtype) carries no
// authentication of its own, matching the reference implementation's
// plaintext node-to-node transport.
func dialScheduler(addr string) (rpc.SchedulerClient, error) {
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("rpc: dial scheduler %s: %w", addr, err)
	}
	return rpc.NewSchedulerClient(cc), nil
}

func dialDaemon(addr string) (rpc.ServerDaemonClient, error) {
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("rpc: dial daemon %s: %w", addr, err)
	}
	return rpc.NewServerDaemonClient(cc), nil
}
