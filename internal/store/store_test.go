package store

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/laqista-io/laqista/internal/core"
)

func buildBundle(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestInsertGetLookup(t *testing.T) {
	bundle := buildBundle(t, map[string][]byte{
		"model.onnx": []byte("onnx-bytes"),
		"module.wasm": []byte("wasm-bytes"),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bundle)
	}))
	defer srv.Close()

	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	id := uuid.New()
	info := core.NewDeploymentInfo(id, "face", srv.URL, []core.AppRpc{
		{Package: "face", Service: "ObjectDetection", Rpc: "Squeeze"},
	}, nil)

	require.NoError(t, s.Insert(context.Background(), info))

	onnx, err := s.Get(id, core.Onnx)
	require.NoError(t, err)
	require.Equal(t, "onnx-bytes", string(onnx))

	wasm, err := s.Get(id, core.Wasm)
	require.NoError(t, err)
	require.Equal(t, "wasm-bytes", string(wasm))

	got, ok := s.Lookup("face")
	require.True(t, ok)
	require.Equal(t, id, got.ID)

	names := s.ListByNames()
	require.Contains(t, names, "face")
}

func TestInsertMalformedArchiveFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a gzip stream"))
	}))
	defer srv.Close()

	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	info := core.NewDeploymentInfo(uuid.New(), "broken", srv.URL, nil, nil)
	err = s.Insert(context.Background(), info)
	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	require.Equal(t, core.KindBundleFetch, kind)
}

func TestGetUnknownDeploymentFails(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(uuid.New(), core.Onnx)
	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	require.Equal(t, core.KindUnknownDeployment, kind)
}

func TestScanReAdoptsExistingDirectories(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "apps", id.String()), 0o755))

	s, err := New(dir)
	require.NoError(t, err)
	defer s.Close()

	info, ok := s.InfoByID(id)
	require.True(t, ok)
	require.Equal(t, id, info.ID)
}
