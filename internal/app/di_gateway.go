package app

import (
	"context"
	"fmt"

	cryptoRepository "github.com/allisson/fieldvault/internal/crypto/repository"
	gatewayUseCase "github.com/allisson/fieldvault/internal/gateway/usecase"
)

// GatewayUseCase returns the Encryption Gateway. It needs a data key: without one
// the gateway would have to return plaintext, so startup fails instead.
func (c *Container) GatewayUseCase() (gatewayUseCase.GatewayUseCase, error) {
	err := c.lazy(&c.gatewayUseCaseInit, "gatewayUseCase", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for gateway use case: %w", err)
		}
		reg, err := c.Registry()
		if err != nil {
			return err
		}
		engine, err := c.Engine(context.Background())
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

		c.gatewayUseCase = gatewayUseCase.NewGatewayUseCaseWithMetrics(
			gatewayUseCase.NewGatewayUseCase(
				reg,
				engine,
				cryptoRepository.NewFieldRepository(db, c.Dialect()),
				c.Guard(),
				auditLogs,
				c.Logger(),
				gatewayUseCase.Options{
					BatchTimeout:     c.config.BatchTimeout,
					BatchConcurrency: c.config.BatchConcurrency,
				},
			),
			businessMetrics,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.gatewayUseCase, nil
}
