package scheduler

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/laqista-io/laqista/internal/cluster"
	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/placement"
	"github.com/laqista-io/laqista/internal/rpc"
	"github.com/laqista-io/laqista/internal/stats"
	"github.com/laqista-io/laqista/internal/store"
)

func buildBundle(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range map[string][]byte{"model.onnx": []byte("onnx"), "module.wasm": []byte("wasm")} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func newAuthoritativeFixture(t *testing.T) (*Authoritative, core.ServerInfo) {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	self := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:50051"}
	registry := cluster.NewRegistry()
	registry.Bootstrap(self)

	a := NewAuthoritative(self, registry, stats.NewStatsMap(), stats.NewAppsMap(), st, placement.NewMeanLatencyPolicy(), nil)
	return a, self
}

// bytesHandler serves b for every request, used to back the http fetch
// store.Insert performs.
func bytesHandler(b []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write(b)
	}
}

func TestAuthoritativeDeployThenLookupSingleNode(t *testing.T) {
	a, self := newAuthoritativeFixture(t)
	ctx := context.Background()

	bundle := buildBundle(t)
	srv := httptest.NewServer(bytesHandler(bundle))
	t.Cleanup(srv.Close)

	deployReply, err := a.Deploy(ctx, &rpc.DeployRequest{
		Name:      "face",
		SourceURL: srv.URL,
		Rpcs:      []string{"/face.Detector/RunDetection", "/face.ObjectDetection/Squeeze"},
		AccuraciesPercent: map[string]float64{
			"/face.ObjectDetection/Squeeze": 80.3,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "face", deployReply.Deployment.Name)

	_, err = a.Report(ctx, &rpc.ReportRequest{
		Server:  self,
		Windows: []rpc.Window{rpc.ToWindow(stats.MonitorWindow{Start: time.Now(), End: time.Now().Add(time.Second), Utilization: core.ResourceUtilization{Cpu: 10, Gpu: core.NotObserved}})},
		AppLatencies: map[string]float64{
			"/face.ObjectDetection/Squeeze": 12,
		},
	})
	require.NoError(t, err)

	lookupReply, err := a.Lookup(ctx, &rpc.LookupRequest{Name: "face", Service: "face.ObjectDetection"})
	require.NoError(t, err)
	require.Equal(t, self.ID, lookupReply.Server.ID)
	require.Equal(t, "/face.ObjectDetection/Squeeze", lookupReply.Rpc)
}

func TestAuthoritativeJoinRegistersServerAndStats(t *testing.T) {
	a, _ := newAuthoritativeFixture(t)
	joiner := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:50052"}

	reply, err := a.Join(context.Background(), &rpc.JoinRequest{Server: joiner})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, reply.Group.Scheduler.ID)
	require.True(t, a.registry.Contains(joiner.ID))
	require.Contains(t, a.statsMap.Snapshot(), joiner.ID)
}

func TestAuthoritativeGetAppsFiltersToRequestedNames(t *testing.T) {
	a, _ := newAuthoritativeFixture(t)
	ctx := context.Background()

	bundle := buildBundle(t)
	srv := httptest.NewServer(bytesHandler(bundle))
	t.Cleanup(srv.Close)

	_, err := a.Deploy(ctx, &rpc.DeployRequest{Name: "face", SourceURL: srv.URL, Rpcs: []string{"/face.Detector/Run"}})
	require.NoError(t, err)
	_, err = a.Deploy(ctx, &rpc.DeployRequest{Name: "speech", SourceURL: srv.URL, Rpcs: []string{"/speech.Detector/Run"}})
	require.NoError(t, err)

	reply, err := a.GetApps(ctx, &rpc.GetAppsRequest{Names: []string{"face"}})
	require.NoError(t, err)
	require.Len(t, reply.Deployments, 1)
	require.Equal(t, "face", reply.Deployments[0].Name)
}

// fakeDaemonClient records every Spawn it receives, modeling a peer
// node's ServerDaemon during a Deploy broadcast.
type fakeDaemonClient struct {
	rpc.ServerDaemonClient
	spawned []uuid.UUID
}

func (f *fakeDaemonClient) Spawn(ctx context.Context, in *rpc.SpawnRequest, opts ...grpc.CallOption) (*rpc.SpawnReply, error) {
	f.spawned = append(f.spawned, in.Deployment)
	return &rpc.SpawnReply{Accepted: true}, nil
}

func TestAuthoritativeDeployBroadcastsSpawnToPeers(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	self := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:1"}
	peer := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:2"}
	registry := cluster.NewRegistry()
	registry.Bootstrap(self)
	registry.Join(peer)

	fake := &fakeDaemonClient{}
	dial := func(addr string) (rpc.ServerDaemonClient, error) { return fake, nil }

	a := NewAuthoritative(self, registry, stats.NewStatsMap(), stats.NewAppsMap(), st, placement.NewMeanLatencyPolicy(), dial)

	bundle := buildBundle(t)
	srv := httptest.NewServer(bytesHandler(bundle))
	t.Cleanup(srv.Close)

	deployReply, err := a.Deploy(context.Background(), &rpc.DeployRequest{Name: "face", SourceURL: srv.URL, Rpcs: []string{"/face.Detector/Run"}})
	require.NoError(t, err)
	require.Len(t, fake.spawned, 1)
	require.Equal(t, deployReply.Deployment.ID, fake.spawned[0])

	instances := registry.Snapshot().Instances
	require.Len(t, instances, 1)
	require.Equal(t, deployReply.Deployment.ID, instances[0].Deployment)
	require.Equal(t, peer.ID, instances[0].Server.ID)
}

// TestAuthoritativeDeployDoesNotRecordInstanceOnSpawnFailure ensures a
// failed peer spawn never contributes a phantom AppInstanceLocation:
// Instances must reflect where a deployment actually landed, not where
// it was merely attempted.
func TestAuthoritativeDeployDoesNotRecordInstanceOnSpawnFailure(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	self := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:1"}
	peer := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:2"}
	registry := cluster.NewRegistry()
	registry.Bootstrap(self)
	registry.Join(peer)

	dial := func(addr string) (rpc.ServerDaemonClient, error) { return nil, fmt.Errorf("dial refused") }

	a := NewAuthoritative(self, registry, stats.NewStatsMap(), stats.NewAppsMap(), st, placement.NewMeanLatencyPolicy(), dial)

	bundle := buildBundle(t)
	srv := httptest.NewServer(bytesHandler(bundle))
	t.Cleanup(srv.Close)

	_, err = a.Deploy(context.Background(), &rpc.DeployRequest{Name: "face", SourceURL: srv.URL, Rpcs: []string{"/face.Detector/Run"}})
	require.NoError(t, err)
	require.Empty(t, registry.Snapshot().Instances)
}

// fakeCloudScheduler models the cloud parent a Fog node delegates to
// for S3: it resolves every lookup to the fixed cloudAnswer server.
type fakeCloudScheduler struct {
	rpc.SchedulerClient
	cloudAnswer core.ServerInfo
	calls       int
}

func (f *fakeCloudScheduler) Lookup(ctx context.Context, in *rpc.LookupRequest, opts ...grpc.CallOption) (*rpc.LookupReply, error) {
	f.calls++
	return &rpc.LookupReply{Server: f.cloudAnswer, Rpc: "/face.ObjectDetection/Squeeze"}, nil
}

func TestFogDelegatesUnknownLookupToCloudParent(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	self := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:1"}
	cloudParent := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:2"}
	cloudAnswer := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:3"}

	fakeCloud := &fakeCloudScheduler{cloudAnswer: cloudAnswer}
	f := NewFog(self, cloudParent, stats.NewStatsMap(), stats.NewAppsMap(), st, placement.NewMeanLatencyPolicy(), fakeCloud)

	// The fog node has never heard of "face" locally: no Deploy, no
	// Report, so local schedule() always misses.
	reply, err := f.Lookup(context.Background(), &rpc.LookupRequest{Name: "face", Service: "face.ObjectDetection"})
	require.NoError(t, err)
	require.Equal(t, cloudAnswer.ID, reply.Server.ID)
	require.Equal(t, 1, fakeCloud.calls)
}

func TestFogSchedulesLocallyWhenItHasLatencyHistory(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	self := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:1"}
	cloudParent := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:2"}

	fakeCloud := &fakeCloudScheduler{}
	statsMap := stats.NewStatsMap()
	appsMap := stats.NewAppsMap()
	f := NewFog(self, cloudParent, statsMap, appsMap, st, placement.NewMeanLatencyPolicy(), fakeCloud)

	bundle := buildBundle(t)
	srv := httptest.NewServer(bytesHandler(bundle))
	t.Cleanup(srv.Close)
	info := core.NewDeploymentInfo(uuid.New(), "face", srv.URL, []core.AppRpc{{Package: "face", Service: "ObjectDetection", Rpc: "Squeeze"}}, nil)
	require.NoError(t, st.Insert(context.Background(), info))

	_, err = f.Report(context.Background(), &rpc.ReportRequest{
		Server:       self,
		Windows:      []rpc.Window{rpc.ToWindow(stats.MonitorWindow{Start: time.Now(), End: time.Now().Add(time.Second), Utilization: core.ResourceUtilization{Cpu: 5, Gpu: core.NotObserved}})},
		AppLatencies: map[string]float64{"/face.ObjectDetection/Squeeze": 9},
	})
	require.NoError(t, err)

	reply, err := f.Lookup(context.Background(), &rpc.LookupRequest{Name: "face", Service: "face.ObjectDetection"})
	require.NoError(t, err)
	require.Equal(t, self.ID, reply.Server.ID)
	require.Equal(t, 0, fakeCloud.calls, "local schedule succeeded, cloud parent must not be consulted")
}

func TestFogRejectsJoinDeployGetApps(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	self := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:1"}
	cloudParent := core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:2"}
	f := NewFog(self, cloudParent, stats.NewStatsMap(), stats.NewAppsMap(), st, placement.NewMeanLatencyPolicy(), nil)

	_, err = f.Join(context.Background(), &rpc.JoinRequest{})
	assertNotSupported(t, err)
	_, err = f.Deploy(context.Background(), &rpc.DeployRequest{})
	assertNotSupported(t, err)
	_, err = f.GetApps(context.Background(), &rpc.GetAppsRequest{})
	assertNotSupported(t, err)
}

func TestUninitRejectsEverything(t *testing.T) {
	u := NewUninit()
	ctx := context.Background()
	_, joinErr := u.Join(ctx, &rpc.JoinRequest{})
	_, reportErr := u.Report(ctx, &rpc.ReportRequest{})
	_, deployErr := u.Deploy(ctx, &rpc.DeployRequest{})
	_, lookupErr := u.Lookup(ctx, &rpc.LookupRequest{})
	_, getAppsErr := u.GetApps(ctx, &rpc.GetAppsRequest{})
	for _, err := range []error{joinErr, reportErr, deployErr, lookupErr, getAppsErr} {
		kind, ok := core.KindOf(err)
		require.True(t, ok)
		require.Equal(t, core.KindNotInitialised, kind)
	}
}

func assertNotSupported(t *testing.T, err error) {
	t.Helper()
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	require.Equal(t, core.KindNotSupported, kind)
}
