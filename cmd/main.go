package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	grpcrouter "github.com/dtroode/alumni-connect-server/internal/api/grpc/router"
	grpcserver "github.com/dtroode/alumni-connect-server/internal/api/grpc/server"
	httpcontext "github.com/dtroode/alumni-connect-server/internal/api/http/context"
	httprouter "github.com/dtroode/alumni-connect-server/internal/api/http/router"
	httpserver "github.com/dtroode/alumni-connect-server/internal/api/http/server"
	"github.com/dtroode/alumni-connect-server/internal/config"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/metrics"
	"github.com/dtroode/alumni-connect-server/internal/model"
	"github.com/dtroode/alumni-connect-server/internal/ocr"
	"github.com/dtroode/alumni-connect-server/internal/password"
	"github.com/dtroode/alumni-connect-server/internal/ratelimit"
	"github.com/dtroode/alumni-connect-server/internal/repository/postgres"
	"github.com/dtroode/alumni-connect-server/internal/server"
	"github.com/dtroode/alumni-connect-server/internal/service"
	storage "github.com/dtroode/alumni-connect-server/internal/storage/minio"
	"github.com/dtroode/alumni-connect-server/internal/token"
	"github.com/dtroode/alumni-connect-server/internal/verification"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 15 * time.Second
)

type endpoint struct {
	server        model.Server
	securityLayer model.SecurityLayer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithFormat(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	logAppVersion()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped with error", "error", err)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *logger.Logger) error {
	conn, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer conn.Close()

	storageClient, err := storage.Connect(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage client: %w", err)
	}

	m := metrics.New()
	issuer := token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)

	orchestrator := verification.NewOrchestrator(
		ocr.NewClient(storageClient, cfg.OCR, logger),
		verification.NewDomainClassifier(cfg.Verification.GenericDomains),
		m,
		logger,
	)
	accountService := service.NewAccount(
		postgres.NewAccountRepository(conn.DB()),
		orchestrator,
		password.NewHasher(password.DefaultCost),
		issuer,
		m,
		logger,
	)
	evidenceService := service.NewEvidence(storageClient, logger)

	if cfg.Admin.Email != "" {
		if _, err := accountService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
	}

	probes := map[string]grpcrouter.Probe{
		"postgres": conn.Ping,
		"storage":  storageClient.Ping,
	}

	var limiter ratelimit.Limiter
	if cfg.Redis.URL != "" {
		redisClient, err := ratelimit.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		limiter = ratelimit.NewRedis(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.AuthLimit, cfg.Redis.AuthWindow)
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		logger.Warn("REDIS_URL is empty, auth endpoints are not rate limited")
	}

	health := grpcrouter.NewHealth(probes, logger)

	httpHandler := httprouter.New(
		accountService,
		evidenceService,
		issuer,
		limiter,
		m,
		httpcontext.NewManager(),
		cfg.HTTP,
		logger,
	).Register()

	endpoints := []endpoint{
		{
			server:        httpserver.NewHTTPServer(httpHandler, fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.HTTP.ReadHeaderTimeout),
			securityLayer: server.NewSecurityLayer(cfg.HTTP),
		},
		{
			server:        grpcserver.NewGRPCServer(grpcrouter.New(health, logger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
			securityLayer: server.NewPlainListener(),
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		health.Run(gctx, healthCheckInterval)
		return nil
	})

	for _, e := range endpoints {
		g.Go(func() error {
			logger.Info("Starting server", "name", e.server.Name(), "address", e.server.Address())
			if err := e.server.Start(e.securityLayer); err != nil {
				return fmt.Errorf("%s server: %w", e.server.Name(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received interruption signal, shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, e := range endpoints {
			if err := e.server.Stop(shutdownCtx); err != nil {
				logger.Error("error during server shutdown", "name", e.server.Name(), "address", e.server.Address(), "error", err)
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
