package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service reported alongside the overall status.
const ServiceName = "netquiz.Server"

// AdminServer exposes the standard gRPC health service for the NetQuiz server.
type AdminServer struct {
	log    *slog.Logger
	server *grpc.Server
	health *health.Server
}

func NewAdminServer(log *slog.Logger) *AdminServer {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(sdkgrpc.UnaryLoggingInterceptor(log)))
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &AdminServer{log: log, server: s, health: h}
}

// SetServing flips both the overall and the NetQuiz service status.
func (a *AdminServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	a.health.SetServingStatus("", status)
	a.health.SetServingStatus(ServiceName, status)
}

// Serve blocks until Stop is called.
func (a *AdminServer) Serve(lis net.Listener) error {
	a.log.Info("Starting gRPC admin server", "address", lis.Addr().String())
	for name := range a.server.GetServiceInfo() {
		a.log.Debug("gRPC exposed service", "name", name)
	}
	if err := a.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC admin server: %w", err)
	}
	return nil
}

// Stop reports NOT_SERVING to watchers then drains in-flight calls.
func (a *AdminServer) Stop() {
	a.health.Shutdown()
	a.server.GracefulStop()
}
