// Package grpc serves the operational gRPC endpoint: the standard
// grpc.health.v1 service backed by the database health check, plus
// server reflection.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-checked service name in addition to the
// server-wide "" entry.
const ServiceName = "taskflow.TaskFlow"

const DefaultCheckInterval = 15 * time.Second

type HealthChecker interface {
	Check(ctx context.Context) (services.Health, error)
}

type GRPCServer struct {
	address       string
	logger        logging.Logger
	checker       HealthChecker
	health        *health.Server
	checkInterval time.Duration
}

func NewGRPCServer(a string, l logging.Logger, hc HealthChecker, checkInterval time.Duration) *GRPCServer {
	if checkInterval <= 0 {
		checkInterval = DefaultCheckInterval
	}
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		checker:       hc,
		health:        health.NewServer(),
		checkInterval: checkInterval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	s.refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

// refresh maps the database health onto the health service statuses.
func (s *GRPCServer) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	status := healthpb.HealthCheckResponse_SERVING
	if _, err := s.checker.Check(ctx); err != nil {
		s.logger.Warn(ctx, "Health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
