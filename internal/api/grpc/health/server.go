package health

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/strompi-watchdog/internal/domain/power"
)

// ServiceName is the health service identifier monitoring systems query.
const ServiceName = "strompi.v1.Watchdog"

// Server exposes the standard gRPC health protocol for the watchdog. It
// reports SERVING while the machine is presumed on power and NOT_SERVING
// once a shutdown countdown is running, so fleet monitoring sees a node
// that is about to disappear.
type Server struct {
	// grpcServer is the underlying transport.
	grpcServer *grpc.Server
	// health is the bundled grpc-go health service implementation.
	health *health.Server
}

// NewServer creates a health server reporting SERVING.
func NewServer() *Server {
	h := health.NewServer()
	s := grpc.NewServer()

	healthpb.RegisterHealthServer(s, h)

	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{
		grpcServer: s,
		health:     h,
	}
}

// Serve accepts health checks on the listener until the context is canceled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.grpcServer.GracefulStop()
	}()

	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("serve health endpoint: %w", err)
	}

	return nil
}

// SetPowerState maps the arbiter state onto the health protocol.
func (s *Server) SetPowerState(state power.ArbiterState) {
	status := healthpb.HealthCheckResponse_SERVING
	if state == power.StateAwaitingShutdown {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
}
