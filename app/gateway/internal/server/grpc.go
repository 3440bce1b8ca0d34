package server

import (
	"context"
	"net"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/iWorld-y/visit_report/app/gateway/internal/conf"
)

// ServiceName health service name reported alongside the overall status
const ServiceName = "visit_report.gateway"

const defaultHealthInterval = 15 * time.Second

// Pinger reports whether a backing resource is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer gRPC health endpoint following the report archive
type HealthServer struct {
	*grpc.Server
	addr     string
	interval time.Duration
	health   *health.Server
	probe    Pinger
	log      *log.Helper
	stop     chan struct{}
}

func NewGRPCServer(c *conf.Server, probe Pinger, logger log.Logger) *HealthServer {
	s := &HealthServer{
		Server:   grpc.NewServer(),
		addr:     ":9000",
		interval: defaultHealthInterval,
		health:   health.NewServer(),
		probe:    probe,
		log:      log.NewHelper(logger),
		stop:     make(chan struct{}),
	}
	if c != nil && c.Grpc != nil {
		if c.Grpc.Addr != "" {
			s.addr = c.Grpc.Addr
		}
		if d, err := time.ParseDuration(c.Grpc.HealthInterval); err == nil && d > 0 {
			s.interval = d
		}
	}
	healthpb.RegisterHealthServer(s.Server, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Start listens and serves until Stop
func (s *HealthServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.check(ctx)
	go s.watch(ctx)
	s.log.Infof("[gRPC] server listening on: %s", lis.Addr().String())
	return s.Serve(lis)
}

// Stop marks the service down and drains connections
func (s *HealthServer) Stop(ctx context.Context) error {
	close(s.stop)
	s.health.Shutdown()
	s.GracefulStop()
	s.log.Info("[gRPC] server stopping")
	return nil
}

func (s *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *HealthServer) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.probe.Ping(pctx); err != nil {
			s.log.Warnf("archive unreachable: %v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
