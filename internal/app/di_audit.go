package app

import (
	"context"
	"fmt"

	auditRepository "github.com/allisson/fieldvault/internal/audit/repository"
	auditService "github.com/allisson/fieldvault/internal/audit/service"
	auditUseCase "github.com/allisson/fieldvault/internal/audit/usecase"
)

// engineDeriver resolves the engine on each call so the audit trail stays readable
// (stats, listing) before any data key exists. Signing then fails with
// ErrKeyUnavailable.
type engineDeriver struct {
	c *Container
}

func (d engineDeriver) DeriveKey(version uint16, info string) ([]byte, error) {
	engine, err := d.c.Engine(context.Background())
	if err != nil {
		return nil, err
	}
	return engine.DeriveKey(version, info)
}

func (d engineDeriver) ActiveKeyVersion() uint16 {
	engine, err := d.c.Engine(context.Background())
	if err != nil {
		return 0
	}
	return engine.ActiveKeyVersion()
}

// AuditLogUseCase returns the Audit Logger.
func (c *Container) AuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	err := c.lazy(&c.auditLogUseCaseInit, "auditLogUseCase", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for audit log use case: %w", err)
		}
		txManager, err := c.TxManager()
		if err != nil {
			return err
		}
		alerts, err := c.AuditAlerts()
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		var repo auditUseCase.AuditLogRepository
		switch c.config.DBDriver {
		case "postgres":
			repo = auditRepository.NewPostgreSQLAuditLogRepository(db)
		case "mysql":
			repo = auditRepository.NewMySQLAuditLogRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}

		c.auditLogUseCase = auditUseCase.NewAuditLogUseCaseWithMetrics(
			auditUseCase.NewAuditLogUseCase(
				txManager,
				repo,
				auditService.NewAuditSigner(engineDeriver{c: c}),
				alerts,
				c.Logger(),
				auditUseCase.Options{FailOpen: c.config.AuditFailsOpen()},
			),
			businessMetrics,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.auditLogUseCase, nil
}
