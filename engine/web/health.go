package web

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/farsdash/farsdash/pkg/resilience"
)

// HealthService is the name reported by the gRPC health endpoint.
const HealthService = "farsdash"

// Health serves grpc.health.v1. The dashboard reports NOT_SERVING while the
// backend circuit breaker is open.
type Health struct {
	srv *grpc.Server
	hs  *health.Server
}

// NewHealth creates a health server that starts out serving.
func NewHealth() *Health {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	h := &Health{srv: srv, hs: hs}
	h.SetBreakerState(resilience.StateClosed)
	return h
}

// SetBreakerState is meant for resilience.BreakerOpts.OnStateChange.
func (h *Health) SetBreakerState(st resilience.State) {
	status := healthpb.HealthCheckResponse_SERVING
	if st == resilience.StateOpen {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.hs.SetServingStatus("", status)
	h.hs.SetServingStatus(HealthService, status)
}

// Serve blocks serving on lis until Stop.
func (h *Health) Serve(lis net.Listener) error { return h.srv.Serve(lis) }

// Stop marks everything NOT_SERVING and stops the server.
func (h *Health) Stop() {
	h.hs.Shutdown()
	h.srv.GracefulStop()
}
