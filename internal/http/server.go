// Package http provides the HTTP server, its router and the cross-cutting middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	auditHTTP "github.com/allisson/fieldvault/internal/audit/http"
	authHTTP "github.com/allisson/fieldvault/internal/auth/http"
	authService "github.com/allisson/fieldvault/internal/auth/service"
	complianceHTTP "github.com/allisson/fieldvault/internal/compliance/http"
	"github.com/allisson/fieldvault/internal/config"
	gatewayHTTP "github.com/allisson/fieldvault/internal/gateway/http"
	"github.com/allisson/fieldvault/internal/metrics"
)

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is installed by SetupRouter.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: newHTTPServer(host, port, nil),
	}
}

// Handlers groups the domain handlers mounted under /v1.
type Handlers struct {
	Gateway    *gatewayHTTP.GatewayHandler
	AuditLog   *auditHTTP.AuditLogHandler
	Compliance *complianceHTTP.ComplianceHandler
}

// SetupRouter builds the gin router with every route and middleware.
// meterProvider may be nil when metrics are disabled. ctx bounds background work
// started by middleware (rate limiter cleanup).
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	verifier authService.TokenVerifier,
	meterProvider metric.MeterProvider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	v1.Use(authHTTP.IdentityMiddleware(verifier, s.logger))
	if cfg.RateLimitEnabled {
		v1.Use(authHTTP.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	records := v1.Group("/records/:entity_type")
	{
		records.POST("/encrypt", handlers.Gateway.EncryptHandler)
		records.POST("/decrypt", handlers.Gateway.DecryptHandler)
		records.POST("/decrypt-batch", handlers.Gateway.DecryptBatchHandler)
	}

	v1.GET("/audit-logs", handlers.AuditLog.ListHandler)

	compliance := v1.Group("/compliance")
	{
		compliance.GET("/self-test", handlers.Compliance.SelfTestHandler)
		compliance.GET("/report", handlers.Compliance.ReportHandler)
		compliance.GET("/report/export", handlers.Compliance.ExportHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness based on database connectivity.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.db.PingContext(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured: call SetupRouter first")
	}
	s.server.Handler = s.router

	return listen(s.server, "http server", s.logger)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return shutdown(ctx, s.server, "http server", s.logger)
}
