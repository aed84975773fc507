package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
	"github.com/allisson/fieldvault/internal/metrics"
)

// gatewayUseCaseWithMetrics decorates GatewayUseCase with metrics instrumentation.
type gatewayUseCaseWithMetrics struct {
	next    GatewayUseCase
	metrics metrics.BusinessMetrics
}

// NewGatewayUseCaseWithMetrics wraps a GatewayUseCase with metrics recording.
func NewGatewayUseCaseWithMetrics(useCase GatewayUseCase, m metrics.BusinessMetrics) GatewayUseCase {
	return &gatewayUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (g *gatewayUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	g.metrics.RecordOperation(ctx, "gateway", operation, status)
	g.metrics.RecordDuration(ctx, "gateway", operation, time.Since(start), status)
}

// Encrypt records metrics for record encryption.
func (g *gatewayUseCaseWithMetrics) Encrypt(
	ctx context.Context,
	entityType string,
	record gatewayDomain.Record,
) (gatewayDomain.Record, error) {
	start := time.Now()
	sealed, err := g.next.Encrypt(ctx, entityType, record)
	g.record(ctx, "encrypt", start, err)
	return sealed, err
}

// EncryptAs records metrics for tenant scoped record encryption.
func (g *gatewayUseCaseWithMetrics) EncryptAs(
	ctx context.Context,
	actor *authDomain.Actor,
	entityType string,
	record gatewayDomain.Record,
) (gatewayDomain.Record, error) {
	start := time.Now()
	sealed, err := g.next.EncryptAs(ctx, actor, entityType, record)
	g.record(ctx, "encrypt", start, err)
	return sealed, err
}

// Decrypt records metrics for record decryption.
func (g *gatewayUseCaseWithMetrics) Decrypt(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	record gatewayDomain.Record,
) (gatewayDomain.Record, auditDomain.Outcome, error) {
	start := time.Now()
	opened, outcome, err := g.next.Decrypt(ctx, actor, action, entityType, record)
	g.record(ctx, "decrypt", start, err)
	return opened, outcome, err
}

// DecryptBatch records metrics for batch decryption.
func (g *gatewayUseCaseWithMetrics) DecryptBatch(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	records []gatewayDomain.Record,
) ([]gatewayDomain.Result, error) {
	start := time.Now()
	results, err := g.next.DecryptBatch(ctx, actor, action, entityType, records)
	g.record(ctx, "decrypt_batch", start, err)
	return results, err
}

// DecryptByID records metrics for decryption of a stored row.
func (g *gatewayUseCaseWithMetrics) DecryptByID(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	id string,
) (gatewayDomain.Record, auditDomain.Outcome, error) {
	start := time.Now()
	opened, outcome, err := g.next.DecryptByID(ctx, actor, action, entityType, id)
	g.record(ctx, "decrypt", start, err)
	return opened, outcome, err
}

// DecryptBatchByID records metrics for batch decryption of stored rows.
func (g *gatewayUseCaseWithMetrics) DecryptBatchByID(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	ids []string,
) ([]gatewayDomain.Result, error) {
	start := time.Now()
	results, err := g.next.DecryptBatchByID(ctx, actor, action, entityType, ids)
	g.record(ctx, "decrypt_batch", start, err)
	return results, err
}

// EncryptValue records metrics for typed value encryption.
func (g *gatewayUseCaseWithMetrics) EncryptValue(ctx context.Context, value gatewayDomain.Sealable) error {
	start := time.Now()
	err := g.next.EncryptValue(ctx, value)
	g.record(ctx, "encrypt", start, err)
	return err
}

// DecryptValue records metrics for typed value decryption.
func (g *gatewayUseCaseWithMetrics) DecryptValue(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	value gatewayDomain.Sealable,
) (auditDomain.Outcome, error) {
	start := time.Now()
	outcome, err := g.next.DecryptValue(ctx, actor, action, value)
	g.record(ctx, "decrypt", start, err)
	return outcome, err
}
