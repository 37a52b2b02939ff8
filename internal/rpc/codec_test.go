package rpc

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"

	"github.com/laqista-io/laqista/internal/core"
)

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec, "jsonCodec must be registered under %q", CodecName)

	req := &JoinRequest{Server: core.ServerInfo{ID: uuid.New(), Addr: "127.0.0.1:50051"}}
	b, err := codec.Marshal(req)
	require.NoError(t, err)

	var got JoinRequest
	require.NoError(t, codec.Unmarshal(b, &got))
	require.Equal(t, req.Server, got.Server)
}

func TestServiceDescsNameEveryRpc(t *testing.T) {
	want := []string{"Join", "Report", "Deploy", "Lookup", "GetApps"}
	got := make([]string, 0, len(Scheduler_ServiceDesc.Methods))
	for _, m := range Scheduler_ServiceDesc.Methods {
		got = append(got, m.MethodName)
	}
	require.ElementsMatch(t, want, got)
	require.Equal(t, "laqista.Scheduler", Scheduler_ServiceDesc.ServiceName)

	wantDaemon := []string{"GetInfo", "Ping", "Nominate", "Monitor", "Spawn", "Destroy"}
	gotDaemon := make([]string, 0, len(ServerDaemon_ServiceDesc.Methods))
	for _, m := range ServerDaemon_ServiceDesc.Methods {
		gotDaemon = append(gotDaemon, m.MethodName)
	}
	require.ElementsMatch(t, wantDaemon, gotDaemon)
	require.Equal(t, "laqista.ServerDaemon", ServerDaemon_ServiceDesc.ServiceName)
}
