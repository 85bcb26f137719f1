// Package grpcapi serves the standard gRPC health service. The overall
// status is SERVING while the process is up; SnapshotService follows the
// outcome of the last snapshot save.
package grpcapi

import (
	"context"
	"net"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SnapshotService is the health service name reporting persistence status.
const SnapshotService = "kinetic.snapshot"

type Dependencies struct {
	Logger *log.Logger
	Addr   string
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *log.Logger
	addr       string
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		logger:     logger,
		addr:       d.Addr,
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(SnapshotService, healthpb.HealthCheckResponse_SERVING)
	return s
}

// SetSnapshotHealthy flips the snapshot service status.
func (s *Server) SetSnapshotHealthy(ok bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(SnapshotService, status)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("grpc listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Shutdown marks every service NOT_SERVING and stops gracefully, forcing
// the stop if ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		return ctx.Err()
	}
}
