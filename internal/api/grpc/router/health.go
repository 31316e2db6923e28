package router

import (
	"context"
	"sort"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/alumni-connect-server/internal/logger"
)

const defaultProbeTimeout = 3 * time.Second

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// Health publishes dependency state through the standard gRPC health service.
// Each probe is exposed under its own service name, and the empty service
// name reports SERVING only while every probe passes.
type Health struct {
	server  *health.Server
	probes  map[string]Probe
	names   []string
	timeout time.Duration
	logger  *logger.Logger
}

// NewHealth creates a Health with every service in NOT_SERVING state until
// the first Check.
func NewHealth(probes map[string]Probe, logger *logger.Logger) *Health {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	server := health.NewServer()
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, name := range names {
		server.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	return &Health{
		server:  server,
		probes:  probes,
		names:   names,
		timeout: defaultProbeTimeout,
		logger:  logger,
	}
}

// Check runs every probe once and updates the published statuses.
func (h *Health) Check(ctx context.Context) bool {
	healthy := true
	for _, name := range h.names {
		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.probes[name](probeCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			h.logger.Warn("Health: probe failed",
				"probe", name,
				"error", err.Error())
		}
		h.server.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", overall)
	return healthy
}

// Run checks immediately and then every interval until ctx is done, after
// which every service reports NOT_SERVING.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	h.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
