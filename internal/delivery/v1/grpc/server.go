package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/DRSN-tech/ordering-backend/internal/cfg"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthCheck проверяет зависимости сервиса. nil: сервис готов.
type HealthCheck func(ctx context.Context) error

// GRPCServer отдаёт стандартный grpc.health.v1 для оркестратора.
type GRPCServer struct {
	server  *grpc.Server
	health  *health.Server
	cfg     *cfg.GRPCConfig
	service string
	logger  logger.Logger
}

func NewGRPCServer(cfg *cfg.GRPCConfig, service string, logger logger.Logger) *GRPCServer {
	s := &GRPCServer{
		server:  grpc.NewServer(),
		health:  health.NewServer(),
		cfg:     cfg,
		service: service,
		logger:  logger,
	}

	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

func (s *GRPCServer) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	lis, err := net.Listen(s.cfg.NetworkMode, addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.server.Serve(lis)
}

// WatchHealth периодически вызывает check и переключает статус SERVING/NOT_SERVING.
// Завершается вместе с ctx.
func (s *GRPCServer) WatchHealth(ctx context.Context, check HealthCheck, interval time.Duration) {
	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		if err := check(probeCtx); err != nil {
			s.logger.Warnf("health check failed: %v", err)
			s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
			return
		}
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
	}

	probe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

func (s *GRPCServer) Stop(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infof("gRPC server stopped gracefully")
		return nil
	case <-ctx.Done():
		s.server.Stop()
		s.logger.Warnf("gRPC server forced to stop after timeout")
		return ctx.Err()
	}
}

func (s *GRPCServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}
