// Package app provides the dependency injection container assembling the application.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditHTTP "github.com/allisson/fieldvault/internal/audit/http"
	auditUseCase "github.com/allisson/fieldvault/internal/audit/usecase"
	authService "github.com/allisson/fieldvault/internal/auth/service"
	complianceHTTP "github.com/allisson/fieldvault/internal/compliance/http"
	complianceUseCase "github.com/allisson/fieldvault/internal/compliance/usecase"
	"github.com/allisson/fieldvault/internal/config"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	cryptoUseCase "github.com/allisson/fieldvault/internal/crypto/usecase"
	"github.com/allisson/fieldvault/internal/database"
	gatewayHTTP "github.com/allisson/fieldvault/internal/gateway/http"
	gatewayUseCase "github.com/allisson/fieldvault/internal/gateway/usecase"
	"github.com/allisson/fieldvault/internal/http"
	"github.com/allisson/fieldvault/internal/metrics"
	"github.com/allisson/fieldvault/internal/registry"
	"github.com/allisson/fieldvault/migrations"
)

// Container holds all application dependencies and provides methods to access them.
// Components are created on first access.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	registry        *registry.Registry
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	auditAlerts     metrics.AuditAlerts

	// Crypto
	kmsService      cryptoService.KMSService
	masterKeyChain  *cryptoDomain.MasterKeyChain
	keyRepository   cryptoUseCase.KeyRepository
	keyUseCase      cryptoUseCase.KeyUseCase
	engine          *cryptoService.Engine
	rewrapUseCase   cryptoUseCase.FieldRewrapUseCase
	tokenVerifier   authService.TokenVerifier
	auditLogUseCase auditUseCase.AuditLogUseCase
	gatewayUseCase  gatewayUseCase.GatewayUseCase
	complianceUC    complianceUseCase.ComplianceUseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	registryInit        sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	auditAlertsInit     sync.Once
	kmsServiceInit      sync.Once
	masterKeyChainInit  sync.Once
	keyRepositoryInit   sync.Once
	keyUseCaseInit      sync.Once
	engineInit          sync.Once
	rewrapUseCaseInit   sync.Once
	tokenVerifierInit   sync.Once
	auditLogUseCaseInit sync.Once
	gatewayUseCaseInit  sync.Once
	complianceUCInit    sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// lazy runs init once under name and replays its error on later calls.
func (c *Container) lazy(once *sync.Once, name string, init func() error) error {
	once.Do(func() {
		if err := init(); err != nil {
			c.mu.Lock()
			c.initErrors[name] = err
			c.mu.Unlock()
		}
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	err := c.lazy(&c.dbInit, "db", func() (err error) {
		c.db, err = c.initDB()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.db, nil
}

// Dialect returns the SQL dialect of the configured driver.
func (c *Container) Dialect() database.Dialect {
	return database.DialectFor(c.config.DBDriver)
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	err := c.lazy(&c.txManagerInit, "txManager", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		c.txManager = database.NewTxManager(db)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.txManager, nil
}

// Registry returns the sensitive field registry, read from REGISTRY_PATH or from the
// copy embedded with the migrations.
func (c *Container) Registry() (*registry.Registry, error) {
	err := c.lazy(&c.registryInit, "registry", func() (err error) {
		if c.config.RegistryPath != "" {
			c.registry, err = registry.LoadFile(c.config.RegistryPath)
		} else {
			c.registry, err = registry.Load(migrations.FS, migrations.RegistryFile)
		}
		if err != nil {
			return fmt.Errorf("failed to load field registry: %w", err)
		}
		c.Logger().Info("field registry loaded",
			slog.Int("version", c.registry.Version()),
			slog.String("fingerprint", c.registry.Fingerprint()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.registry, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	err := c.lazy(&c.metricsProviderInit, "metricsProvider", func() (err error) {
		if !c.config.MetricsEnabled {
			return nil
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create metrics provider: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder, a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	err := c.lazy(&c.businessMetricsInit, "businessMetrics", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return nil
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// AuditAlerts returns the audit alert recorder, a no-op when metrics are disabled.
func (c *Container) AuditAlerts() (metrics.AuditAlerts, error) {
	err := c.lazy(&c.auditAlertsInit, "auditAlerts", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			c.auditAlerts = metrics.NewNoOpAuditAlerts()
			return nil
		}
		c.auditAlerts, err = metrics.NewAuditAlerts(provider.MeterProvider(), c.config.MetricsNamespace)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.auditAlerts, nil
}

// HTTPServer returns the API server with its router configured. ctx bounds background
// work started by middleware.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	err := c.lazy(&c.httpServerInit, "httpServer", func() (err error) {
		c.httpServer, err = c.initHTTPServer(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	err := c.lazy(&c.metricsServerInit, "metricsServer", func() error {
		provider, err := c.MetricsProvider()
		if err != nil || provider == nil {
			return err
		}
		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown releases every initialized resource. Plaintext keys are zeroed.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.engine != nil {
		c.engine.Close()
	}

	if c.masterKeyChain != nil {
		c.masterKeyChain.Close()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(shutdownErrors...))
	}

	return nil
}

// initLogger creates a JSON logger at the configured level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(context.Background(), database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initHTTPServer creates the API server and mounts every handler.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	gateway, err := c.GatewayUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway use case for http server: %w", err)
	}

	auditLogs, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for http server: %w", err)
	}

	compliance, err := c.ComplianceUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance use case for http server: %w", err)
	}

	verifier, err := c.TokenVerifier()
	if err != nil {
		return nil, err
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	handlers := http.Handlers{
		Gateway:    gatewayHTTP.NewGatewayHandler(gateway, c.config.BatchMaxRecords, logger),
		AuditLog:   auditHTTP.NewAuditLogHandler(auditLogs, logger),
		Compliance: complianceHTTP.NewComplianceHandler(compliance, logger),
	}
	if provider != nil {
		server.SetupRouter(ctx, c.config, handlers, verifier, provider.MeterProvider())
	} else {
		server.SetupRouter(ctx, c.config, handlers, verifier, nil)
	}

	return server, nil
}
