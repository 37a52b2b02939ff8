package core

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func mustUUID() uuid.UUID {
	return uuid.New()
}

func TestAppRpcPathRoundTrip(t *testing.T) {
	cases := []AppRpc{
		{Package: "face", Service: "Detector", Rpc: "RunDetection"},
		{Package: "face", Service: "ObjectDetection", Rpc: "Squeeze"},
		{Package: "laqista", Service: "Scheduler", Rpc: "Lookup"},
	}
	for _, want := range cases {
		got, err := ParseAppRpc(want.String())
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestParseAppRpcRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"no-leading-slash/Rpc",
		"/onlypackageservice",
		"/.Service/Rpc",
		"/pkg./Rpc",
		"/pkg.Service/",
	}
	for _, s := range bad {
		_, err := ParseAppRpc(s)
		require.Error(t, err, "expected error for %q", s)
		kind, ok := KindOf(err)
		require.True(t, ok)
		require.Equal(t, KindInvalidPath, kind)
	}
}

func TestServiceContainment(t *testing.T) {
	r := AppRpc{Package: "face", Service: "ObjectDetection", Rpc: "Squeeze"}
	require.True(t, r.Service().Contains(r))

	other := AppService{Package: "face", Service: "Detector"}
	require.False(t, other.Contains(r))

	svc := r.Service()
	require.True(t, svc.Contains(r))
	require.Equal(t, svc, r.Service())
}

// TestAppServiceTextMarshalRoundTrip covers the encoding.TextMarshaler
// methods directly: encoding/json refuses to marshal a map whose key
// is a plain struct unless it implements TextMarshaler/TextUnmarshaler.
func TestAppServiceTextMarshalRoundTrip(t *testing.T) {
	svc := AppService{Package: "face", Service: "ObjectDetection"}
	text, err := svc.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "face.ObjectDetection", string(text))

	var got AppService
	require.NoError(t, got.UnmarshalText(text))
	require.Equal(t, svc, got)
}

func TestAppRpcTextMarshalRoundTrip(t *testing.T) {
	rpc := AppRpc{Package: "face", Service: "ObjectDetection", Rpc: "Squeeze"}
	text, err := rpc.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "/face.ObjectDetection/Squeeze", string(text))

	var got AppRpc
	require.NoError(t, got.UnmarshalText(text))
	require.Equal(t, rpc, got)
}

// TestDeploymentInfoSurvivesJSONWireRoundTrip exercises the actual
// concern: encoding/json (the wire codec internal/rpc/codec.go
// registers) marshaling and unmarshaling a DeploymentInfo whose
// Services/Accuracies maps are keyed by AppService/AppRpc, the shape
// every real Deploy/GetApps reply crosses the grpc transport in.
func TestDeploymentInfoSurvivesJSONWireRoundTrip(t *testing.T) {
	rpcs := []AppRpc{
		{Package: "face", Service: "Detector", Rpc: "RunDetection"},
		{Package: "face", Service: "ObjectDetection", Rpc: "Squeeze"},
	}
	accuracies := map[AppRpc]float64{rpcs[1]: 80.3}
	info := NewDeploymentInfo(mustUUID(), "face", "https://example.test/bundle.tgz", rpcs, accuracies)

	encoded, err := json.Marshal(info)
	require.NoError(t, err)

	var decoded DeploymentInfo
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	require.Equal(t, info.ID, decoded.ID)
	require.Equal(t, info.Services, decoded.Services)
	require.InDelta(t, 80.3, decoded.Accuracies[rpcs[1]], 0.0001)
}

func TestNewDeploymentInfoPartitionsByService(t *testing.T) {
	rpcs := []AppRpc{
		{Package: "face", Service: "Detector", Rpc: "RunDetection"},
		{Package: "face", Service: "ObjectDetection", Rpc: "Squeeze"},
	}
	accuracies := map[AppRpc]float64{rpcs[1]: 80.3}
	info := NewDeploymentInfo(mustUUID(), "face", "https://example.test/bundle.tgz", rpcs, accuracies)

	require.Len(t, info.Services, 2)
	require.Equal(t, []AppRpc{rpcs[0]}, info.Services[AppService{Package: "face", Service: "Detector"}])
	require.Equal(t, []AppRpc{rpcs[1]}, info.Services[AppService{Package: "face", Service: "ObjectDetection"}])
	require.InDelta(t, 80.3, info.Accuracies[rpcs[1]], 0.0001)
}
