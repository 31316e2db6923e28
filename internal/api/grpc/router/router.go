package router

import (
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/alumni-connect-server/internal/api/grpc/middleware"
	"github.com/dtroode/alumni-connect-server/internal/logger"
)

// Router builds the operational gRPC server: health checks and reflection.
type Router struct {
	health *Health
	logger *logger.Logger
}

// New creates new gRPC Router instance.
func New(health *Health, logger *logger.Logger) *Router {
	return &Router{
		health: health,
		logger: logger,
	}
}

// Register returns a gRPC server with every service registered.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(logging.RecoverPanic)),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recovery.WithRecoveryHandlerContext(logging.RecoverPanic)),
		),
	)
	healthpb.RegisterHealthServer(s, r.health.server)
	reflection.Register(s)

	return s
}
