package app

import (
	"context"
	"log/slog"

	complianceDomain "github.com/allisson/fieldvault/internal/compliance/domain"
	complianceRepository "github.com/allisson/fieldvault/internal/compliance/repository"
	complianceUseCase "github.com/allisson/fieldvault/internal/compliance/usecase"
)

// ComplianceUseCase returns the Compliance Reporter. A data key that cannot be loaded
// (none created, master keys missing) is reported by the self test rather than
// failing construction.
func (c *Container) ComplianceUseCase() (complianceUseCase.ComplianceUseCase, error) {
	err := c.lazy(&c.complianceUCInit, "complianceUseCase", func() error {
		db, err := c.DB()
		if err != nil {
			return err
		}
		reg, err := c.Registry()
		if err != nil {
			return err
		}
		keyUseCase, err := c.KeyUseCase()
		if err != nil {
			return err
		}
		auditLogs, err := c.AuditLogUseCase()
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		var cipher complianceUseCase.Cipher
		if engine, err := c.Engine(context.Background()); err == nil {
			cipher = engine
		} else {
			c.Logger().Warn("compliance reporter started without a data key", slog.Any("error", err))
		}

		c.complianceUC = complianceUseCase.NewComplianceUseCaseWithMetrics(
			complianceUseCase.NewComplianceUseCase(
				cipher,
				keyUseCase,
				auditLogs,
				complianceRepository.NewClinicalDataRepository(db, c.Dialect()),
				reg,
				c.Logger(),
				complianceUseCase.Options{
					Thresholds: complianceDomain.Thresholds{
						Window:       c.config.ComplianceWindow,
						KeyMaxAge:    c.config.ComplianceKeyMaxAge,
						Unauthorized: c.config.ComplianceUnauthorizedThreshold,
						Failed:       c.config.ComplianceFailedThreshold,
					},
				},
			),
			businessMetrics,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.complianceUC, nil
}
