// Package reporter implements the Metrics Reporter (D) and the
// App-Metric Middleware (C): the upward path from a node's local
// telemetry and served-rpc observations to its current scheduler, plus
// the failure detector that drives election when that scheduler stops
// answering.
package reporter

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/core"
)

// AppMetric is one observed (app, service, rpc, elapsed) tuple, as
// emitted by the middleware for every served application rpc.
type AppMetric struct {
	Rpc     core.AppRpc
	Elapsed time.Duration
}

// appMetricChannelCapacity is the app-metric channel's bound: overflow
// drops the metric, an accepted loss of observability per §5.
const appMetricChannelCapacity = 16

// Middleware observes every served RPC and emits AppMetric tuples on a
// bounded channel. It is installed as a grpc.UnaryServerInterceptor so
// it sees real FullMethod values off live traffic, including the ones
// the Scheduler/ServerDaemon handlers themselves never touch.
type Middleware struct {
	ch chan AppMetric
}

// NewMiddleware returns a Middleware with its channel undrained;
// callers must read Metrics() or the channel fills and further
// metrics are dropped.
func NewMiddleware() *Middleware {
	return &Middleware{ch: make(chan AppMetric, appMetricChannelCapacity)}
}

// Metrics returns the receive side of the bounded metric channel.
func (m *Middleware) Metrics() <-chan AppMetric {
	return m.ch
}

// Interceptor returns the grpc.UnaryServerInterceptor to install on an
// application service's grpc.Server. It ignores laqista's own service
// methods (those are not "application" rpcs observed by this
// middleware per §2's data flow: A+C -> D).
func (m *Middleware) Interceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		if !strings.HasPrefix(info.FullMethod, "/laqista.") {
			if rpc, perr := core.ParseAppRpc(info.FullMethod); perr == nil {
				m.publish(AppMetric{Rpc: rpc, Elapsed: elapsed})
			}
		}
		return resp, err
	}
}

// publish drops the metric rather than blocking the RPC handler if the
// channel is full.
func (m *Middleware) publish(metric AppMetric) {
	select {
	case m.ch <- metric:
	default:
		klog.V(4).InfoS("app-metric middleware: channel full, dropping metric", "rpc", metric.Rpc.String())
	}
}

// drainAvailable non-blockingly drains every currently-available
// metric from ch, per §4.4 step 1.
func drainAvailable(ch <-chan AppMetric) []AppMetric {
	var out []AppMetric
	for {
		select {
		case m := <-ch:
			out = append(out, m)
		default:
			return out
		}
	}
}
