// Package store implements the content-addressed deployment bundle
// store: a filesystem directory rooted at <data_path>/apps/<uuid>/,
// fetched over HTTPS and indexed by deployment id.
package store

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/core"
)

const (
	onnxArtifactName = "model.onnx"
	wasmArtifactName = "module.wasm"
)

// entry is one indexed deployment: its metadata plus the directory it
// was extracted into.
type entry struct {
	info core.DeploymentInfo
	dir  string
}

// Store is the filesystem-backed content store. It is guarded by one
// coarse mutex per the concurrency model in §5: handlers clone under
// the lock, release, then operate on the clone.
type Store struct {
	root string

	mu      sync.Mutex
	byID    map[uuid.UUID]*entry
	byName  map[string]uuid.UUID
	client  *http.Client
	watcher *fsnotify.Watcher
}

// New returns a Store rooted at <dataPath>/apps, scanning it for
// already-extracted deployments and starting an fsnotify watch for
// bundles dropped in after startup.
func New(dataPath string) (*Store, error) {
	root := filepath.Join(dataPath, "apps")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("deployment store: create root: %w", err)
	}
	s := &Store{
		root:   root,
		byID:   make(map[uuid.UUID]*entry),
		byName: make(map[string]uuid.UUID),
		client: &http.Client{Timeout: 30 * time.Second},
	}
	if err := s.scan(); err != nil {
		return nil, err
	}
	if err := s.watch(); err != nil {
		klog.ErrorS(err, "deployment store: fsnotify watch failed, re-adoption disabled")
	}
	return s, nil
}

// scan walks root on startup, re-adopting every subdirectory whose
// name parses as a UUID.
func (s *Store) scan() error {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("deployment store: scan: %w", err)
	}
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		id, err := uuid.Parse(de.Name())
		if err != nil {
			continue
		}
		s.adopt(id)
	}
	return nil
}

// adopt indexes an already-extracted directory by id. Its name and
// source URL are not recoverable from the filesystem alone, so an
// adopted entry carries an empty DeploymentInfo save for the id. That
// metadata is not filled in later: an adopted entry is reachable by id
// (InfoByID, Get) but never by name (Lookup, ListByNames). This matches
// §4.2: partial or metadata-less directories are reported, not
// auto-deleted.
func (s *Store) adopt(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; ok {
		return
	}
	s.byID[id] = &entry{info: core.DeploymentInfo{ID: id}, dir: s.dirFor(id)}
	klog.InfoS("deployment store: adopted directory", "id", id)
}

func (s *Store) dirFor(id uuid.UUID) string {
	return filepath.Join(s.root, id.String())
}

// watch drives re-adoption of bundles dropped into the apps root by an
// out-of-band copy after startup, via fsnotify (declared in the
// teacher's go.mod, exercised here for the first time).
func (s *Store) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.root); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create) == 0 {
					continue
				}
				base := filepath.Base(ev.Name)
				if id, err := uuid.Parse(base); err == nil {
					s.adopt(id)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				klog.ErrorS(err, "deployment store: fsnotify watcher error")
			}
		}
	}()
	return nil
}

// Close stops the fsnotify watcher.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Insert fetches the bundle at sourceURL over HTTPS, verifies it is a
// gzipped tar, extracts it to <root>/<id>/, and indexes it. Returns
// core.KindBundleFetch on any unreachable URL or malformed archive.
func (s *Store) Insert(ctx context.Context, info core.DeploymentInfo) error {
	dir := s.dirFor(info.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.WrapError(core.KindBundleFetch, err, "create bundle dir for %s", info.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.SourceURL, nil)
	if err != nil {
		return core.WrapError(core.KindBundleFetch, err, "build request for %s", info.SourceURL)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return core.WrapError(core.KindBundleFetch, err, "fetch %s", info.SourceURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.NewError(core.KindBundleFetch, "fetch %s: status %d", info.SourceURL, resp.StatusCode)
	}

	if err := extractTarGz(resp.Body, dir); err != nil {
		return core.WrapError(core.KindBundleFetch, err, "extract bundle for %s", info.ID)
	}

	s.mu.Lock()
	s.byID[info.ID] = &entry{info: info, dir: dir}
	s.byName[info.Name] = info.ID
	s.mu.Unlock()

	klog.InfoS("deployment store: inserted", "id", info.ID, "name", info.Name)
	return nil
}

// extractTarGz verifies r is a gzipped tar and extracts it into dir.
func extractTarGz(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("not a gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("malformed tar: %w", err)
		}
		target := filepath.Join(dir, filepath.Clean(hdr.Name))
		if hdr.Typeflag == tar.TypeDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		targetDir := filepath.Dir(target)
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			return err
		}
		// Extract through a temp file swapped in with an atomic rename,
		// so a reader racing a re-adoption extraction (the fsnotify
		// goroutine started by watch) never observes a partially written
		// artifact.
		pending, err := renameio.TempFile(targetDir, target)
		if err != nil {
			return err
		}
		if _, err := io.Copy(pending, tr); err != nil {
			pending.Cleanup()
			return err
		}
		if err := pending.CloseAtomicallyReplace(); err != nil {
			return err
		}
	}
}

// Get returns the bytes of the named artifact for a deployment.
func (s *Store) Get(id uuid.UUID, target core.ArtifactTarget) ([]byte, error) {
	s.mu.Lock()
	e, ok := s.byID[id]
	s.mu.Unlock()
	if !ok {
		return nil, core.NewError(core.KindUnknownDeployment, "deployment %s not indexed", id)
	}

	name := onnxArtifactName
	if target == core.Wasm {
		name = wasmArtifactName
	}
	path := filepath.Join(e.dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.KindUnknownDeployment, err, "artifact %s missing for deployment %s", name, id)
	}
	return b, nil
}

// Remove drops a locally-spawned deployment's indexed entry and its
// extracted directory. This is node-local instance cleanup (the
// Destroy rpc), distinct from the cluster-wide undeploy the catalogue
// itself does not support (§3).
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	e, ok := s.byID[id]
	if ok {
		delete(s.byID, id)
		for name, nid := range s.byName {
			if nid == id {
				delete(s.byName, name)
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		return core.NewError(core.KindUnknownDeployment, "deployment %s not indexed", id)
	}
	return os.RemoveAll(e.dir)
}

// Lookup returns the first deployment whose name matches. Behavior is
// non-deterministic if duplicate names exist; callers must use unique
// names, per §4.2.
func (s *Store) Lookup(name string) (core.DeploymentInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[name]
	if !ok {
		return core.DeploymentInfo{}, false
	}
	return s.byID[id].info, true
}

// ListByNames returns a snapshot mapping deployment name to its info.
func (s *Store) ListByNames() map[string]core.DeploymentInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]core.DeploymentInfo, len(s.byName))
	for name, id := range s.byName {
		out[name] = s.byID[id].info
	}
	return out
}

// InfoByID returns a deployment's metadata by id.
func (s *Store) InfoByID(id uuid.UUID) (core.DeploymentInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return core.DeploymentInfo{}, false
	}
	return e.info, true
}
