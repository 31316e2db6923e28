package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dtroode/alumni-connect-server/internal/api/http/handler"
	"github.com/dtroode/alumni-connect-server/internal/api/http/middleware"
	"github.com/dtroode/alumni-connect-server/internal/api/http/response"
	"github.com/dtroode/alumni-connect-server/internal/config"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/metrics"
	"github.com/dtroode/alumni-connect-server/internal/model"
	"github.com/dtroode/alumni-connect-server/internal/ratelimit"
	"github.com/dtroode/alumni-connect-server/internal/service"
)

const authRateLimitScope = "auth"

// Router builds the public HTTP API.
type Router struct {
	accountService  *service.Account
	evidenceService *service.Evidence
	issuer          model.CredentialIssuer
	limiter         ratelimit.Limiter
	metrics         *metrics.Metrics
	contextManager  model.ContextManager
	cfg             config.HTTP
	logger          *logger.Logger
}

// New creates a Router. A nil limiter disables rate limiting of the auth
// endpoints and nil metrics disables /metrics.
func New(
	accountService *service.Account,
	evidenceService *service.Evidence,
	issuer model.CredentialIssuer,
	limiter ratelimit.Limiter,
	metrics *metrics.Metrics,
	contextManager model.ContextManager,
	cfg config.HTTP,
	logger *logger.Logger,
) *Router {
	return &Router{
		accountService:  accountService,
		evidenceService: evidenceService,
		issuer:          issuer,
		limiter:         limiter,
		metrics:         metrics,
		contextManager:  contextManager,
		cfg:             cfg,
		logger:          logger,
	}
}

// Register mounts every route and returns the root handler.
func (r *Router) Register() http.Handler {
	mux := chi.NewRouter()

	mux.Use(chimiddleware.RequestID)
	if r.cfg.TrustProxy {
		mux.Use(chimiddleware.RealIP)
	}
	mux.Use(middleware.NewLogging(r.logger).Handle)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: r.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusNotFound, response.Message{Message: "Route not found."})
	})

	mux.Get("/", handler.Root)
	if r.metrics != nil {
		mux.Method(http.MethodGet, "/metrics", r.metrics.Handler())
	}

	mux.Route("/api/auth", r.registerAuthRoutes)
	mux.Route("/api/admin", r.registerAdminRoutes)

	return mux
}

func (r *Router) registerAuthRoutes(router chi.Router) {
	if r.limiter != nil {
		router.Use(middleware.NewRateLimit(r.limiter, authRateLimitScope, r.metrics, r.logger).Handle)
	}

	authHandler := handler.NewAuth(r.accountService, r.evidenceService, r.cfg.MaxUploadBytes, r.logger)
	router.Post("/register", authHandler.Register)
	router.Post("/login", authHandler.Login)
}

func (r *Router) registerAdminRoutes(router chi.Router) {
	authenticate := middleware.NewAuthenticate(r.issuer, r.accountService, r.contextManager, r.logger)
	router.Use(authenticate.Handle)
	router.Use(middleware.RequireRole(r.contextManager, r.logger, model.RoleAdmin))

	adminHandler := handler.NewAdmin(r.accountService, r.evidenceService, r.logger)
	router.Get("/users", adminHandler.List)
	router.Get("/users/{id}/evidence", adminHandler.Evidence)
	router.Delete("/users/{id}", adminHandler.Delete)
	router.Post("/verify/{id}", adminHandler.Verify)
}
