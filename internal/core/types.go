// Package core holds the cluster-wide data model shared by every tier
// of a Laqista deployment: server identity, application/rpc naming,
// deployment metadata, and resource utilization snapshots.
package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ServerInfo identifies a single daemon in the cluster. Identity is the
// UUID; Addr may change across restarts without affecting identity.
type ServerInfo struct {
	ID   uuid.UUID `json:"id" yaml:"id"`
	Addr string    `json:"addr" yaml:"addr"`
}

func (s ServerInfo) String() string {
	return fmt.Sprintf("%s@%s", s.ID, s.Addr)
}

// AppService is a (package, service) pair, e.g. ("face", "ObjectDetection").
type AppService struct {
	Package string
	Service string
}

// String renders the service in dotted form: package.Service.
func (s AppService) String() string {
	return s.Package + "." + s.Service
}

// Contains reports whether r belongs to this service, i.e. shares its
// package and service name.
func (s AppService) Contains(r AppRpc) bool {
	return s == r.Service()
}

// MarshalText renders the canonical "package.Service" form so
// AppService can key a JSON map (encoding/json requires
// encoding.TextMarshaler for struct-typed map keys).
func (s AppService) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the "package.Service" form produced by
// MarshalText.
func (s *AppService) UnmarshalText(text []byte) error {
	parsed, err := ParseAppService(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AppRpc is a (package, service, rpc) triple. Its canonical wire form is
// "/package.Service/Rpc", the gRPC FullMethod shape.
type AppRpc struct {
	Package string
	Service string
	Rpc     string
}

// Service projects the rpc down to its parent service by dropping the
// rpc name.
func (r AppRpc) Service() AppService {
	return AppService{Package: r.Package, Service: r.Service}
}

// String renders the canonical "/package.Service/Rpc" form.
func (r AppRpc) String() string {
	return fmt.Sprintf("/%s.%s/%s", r.Package, r.Service, r.Rpc)
}

// MarshalText renders the canonical "/package.Service/Rpc" form so
// AppRpc can key a JSON map (encoding/json requires
// encoding.TextMarshaler for struct-typed map keys).
func (r AppRpc) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses the "/package.Service/Rpc" form produced by
// MarshalText.
func (r *AppRpc) UnmarshalText(text []byte) error {
	parsed, err := ParseAppRpc(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseAppRpc parses a gRPC FullMethod-shaped string "/package.Service/Rpc"
// into its components. Returns a *LaqistaError of KindInvalidPath on any
// malformed input so callers in the Report path can drop just the
// offending entry (spec §7, InvalidPath).
func ParseAppRpc(path string) (AppRpc, error) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == path {
		return AppRpc{}, NewError(KindInvalidPath, "rpc path %q missing leading /", path)
	}
	slash := strings.IndexByte(trimmed, '/')
	if slash < 0 {
		return AppRpc{}, NewError(KindInvalidPath, "rpc path %q missing rpc segment", path)
	}
	qualifiedService, rpc := trimmed[:slash], trimmed[slash+1:]
	if qualifiedService == "" || rpc == "" {
		return AppRpc{}, NewError(KindInvalidPath, "rpc path %q has empty segment", path)
	}
	dot := strings.LastIndexByte(qualifiedService, '.')
	if dot < 0 {
		return AppRpc{}, NewError(KindInvalidPath, "rpc path %q missing package.Service dot", path)
	}
	pkg, svc := qualifiedService[:dot], qualifiedService[dot+1:]
	if pkg == "" || svc == "" {
		return AppRpc{}, NewError(KindInvalidPath, "rpc path %q has empty package or service", path)
	}
	return AppRpc{Package: pkg, Service: svc, Rpc: rpc}, nil
}

// ParseAppService parses a "package.Service" string, the form used by
// Lookup requests, into an AppService.
func ParseAppService(s string) (AppService, error) {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return AppService{}, NewError(KindInvalidPath, "service name %q missing package.Service dot", s)
	}
	pkg, svc := s[:dot], s[dot+1:]
	if pkg == "" || svc == "" {
		return AppService{}, NewError(KindInvalidPath, "service name %q has empty package or service", s)
	}
	return AppService{Package: pkg, Service: svc}, nil
}

// DeploymentInfo is the immutable record created by Deploy. Services
// partitions the declared rpcs by their parent service so that
// service-scoped scheduling queries never scan unrelated apps.
type DeploymentInfo struct {
	ID         uuid.UUID              `json:"id"`
	Name       string                 `json:"name"`
	SourceURL  string                 `json:"source_url"`
	Services   map[AppService][]AppRpc `json:"services"`
	Accuracies map[AppRpc]float64     `json:"accuracies"`
}

// NewDeploymentInfo builds a DeploymentInfo from a flat rpc list,
// partitioning by service as it goes.
func NewDeploymentInfo(id uuid.UUID, name, sourceURL string, rpcs []AppRpc, accuracies map[AppRpc]float64) DeploymentInfo {
	services := make(map[AppService][]AppRpc)
	for _, r := range rpcs {
		svc := r.Service()
		services[svc] = append(services[svc], r)
	}
	if accuracies == nil {
		accuracies = make(map[AppRpc]float64)
	}
	return DeploymentInfo{ID: id, Name: name, SourceURL: sourceURL, Services: services, Accuracies: accuracies}
}

// ResourceUtilization carries integer percentages; -1 means "not
// observed" on a field-by-field basis (e.g. a GPU-only backend leaves
// Cpu at -1).
type ResourceUtilization struct {
	Gpu       int `json:"gpu"`
	Cpu       int `json:"cpu"`
	RamTotal  int `json:"ram_total"`
	RamUsed   int `json:"ram_used"`
	VramTotal int `json:"vram_total"`
	VramUsed  int `json:"vram_used"`
}

// NotObserved is the sentinel value for an unsampled field.
const NotObserved = -1

// ArtifactTarget names the implementation variant the placement policy
// may select between.
type ArtifactTarget int

const (
	Onnx ArtifactTarget = iota
	Wasm
)

func (t ArtifactTarget) String() string {
	switch t {
	case Onnx:
		return "onnx"
	case Wasm:
		return "wasm"
	default:
		return "unknown"
	}
}
