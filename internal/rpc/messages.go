package rpc

import (
	"github.com/google/uuid"

	"github.com/laqista-io/laqista/internal/cluster"
	"github.com/laqista-io/laqista/internal/core"
)

// QoS mirrors placement.QoSSpec on the wire: an absent pointer means
// "no constraint on this axis".
type QoS struct {
	AccuracyPercent *float64 `json:"accuracy_percent,omitempty"`
	LatencyMs       *int     `json:"latency_ms,omitempty"`
}

// --- laqista.Scheduler ---

type JoinRequest struct {
	Server core.ServerInfo `json:"server"`
}

type JoinReply struct {
	Group cluster.Group `json:"group"`
}

type ReportRequest struct {
	Server       core.ServerInfo    `json:"server"`
	Windows      []Window           `json:"windows"`
	AppLatencies map[string]float64 `json:"app_latencies"` // rpc_path -> elapsed ms
}

// Window is the wire shape of stats.MonitorWindow: Start and End travel
// as Unix nanosecond integers rather than raw time.Time values, so no
// monotonic clock reading crosses between daemons.
type Window struct {
	Start       int64                   `json:"start_unix_nano"`
	End         int64                   `json:"end_unix_nano"`
	Utilization core.ResourceUtilization `json:"utilization"`
}

type ReportReply struct {
	Success bool           `json:"success"`
	Cluster *cluster.State `json:"cluster,omitempty"`
}

type DeployRequest struct {
	Name              string             `json:"name"`
	SourceURL         string             `json:"source_url"`
	Rpcs              []string           `json:"rpcs"`
	AccuraciesPercent map[string]float64 `json:"accuracies_percent"` // rpc_path -> percent
}

type DeployReply struct {
	Deployment core.DeploymentInfo `json:"deployment"`
}

type LookupRequest struct {
	Name    string `json:"name"`
	Service string `json:"service"` // "package.Service"
	Qos     QoS    `json:"qos"`
}

type LookupReply struct {
	Server        core.ServerInfo `json:"server"`
	Rpc           string          `json:"rpc"`
	NeedsScaleOut bool            `json:"needs_scale_out"`
}

type GetAppsRequest struct {
	Names []string `json:"names"`
}

type GetAppsReply struct {
	Deployments []core.DeploymentInfo `json:"deployments"`
}

// --- laqista.ServerDaemon ---

type GetInfoRequest struct{}

type GetInfoReply struct {
	Server core.ServerInfo `json:"server"`
	Layer  string          `json:"layer"`
}

type PingRequest struct{}

type PingReply struct {
	Alive bool `json:"alive"`
}

// NominateRequest carries a candidate election result so peers can
// cross-check their independently computed winner (§4.6).
type NominateRequest struct {
	Candidate core.ServerInfo `json:"candidate"`
}

type NominateReply struct {
	Accepted bool `json:"accepted"`
}

type MonitorRequest struct {
	Since int64 `json:"since_unix_nano"`
}

type MonitorReply struct {
	Windows []Window `json:"windows"`
}

// SpawnRequest asks a node to lazily prepare local serving for a
// deployment broadcast by Deploy.
type SpawnRequest struct {
	Deployment uuid.UUID `json:"deployment"`
	SourceURL  string    `json:"source_url"`
}

type SpawnReply struct {
	Accepted bool `json:"accepted"`
}

type DestroyRequest struct {
	Deployment uuid.UUID `json:"deployment"`
}

type DestroyReply struct {
	Removed bool `json:"removed"`
}
