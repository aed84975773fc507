package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	"github.com/allisson/fieldvault/internal/metrics"
)

// auditLogUseCaseWithMetrics decorates AuditLogUseCase with metrics instrumentation.
type auditLogUseCaseWithMetrics struct {
	next    AuditLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditLogUseCaseWithMetrics wraps an AuditLogUseCase with metrics recording.
func NewAuditLogUseCaseWithMetrics(useCase AuditLogUseCase, m metrics.BusinessMetrics) AuditLogUseCase {
	return &auditLogUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *auditLogUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", operation, status)
	a.metrics.RecordDuration(ctx, "audit", operation, time.Since(start), status)
}

// Log records metrics for single entry writes.
func (a *auditLogUseCaseWithMetrics) Log(ctx context.Context, entry *auditDomain.AuditLog) error {
	start := time.Now()
	err := a.next.Log(ctx, entry)
	a.record(ctx, "audit_log_write", start, err)
	return err
}

// LogBatch records metrics for batch writes.
func (a *auditLogUseCaseWithMetrics) LogBatch(ctx context.Context, entries []*auditDomain.AuditLog) error {
	start := time.Now()
	err := a.next.LogBatch(ctx, entries)
	a.record(ctx, "audit_log_write_batch", start, err)
	return err
}

// List records metrics for audit log listing.
func (a *auditLogUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
	filter auditDomain.Filter,
) ([]*auditDomain.AuditLog, error) {
	start := time.Now()
	auditLogs, err := a.next.List(ctx, offset, limit, filter)
	a.record(ctx, "audit_log_list", start, err)
	return auditLogs, err
}

// Stats records metrics for audit aggregation.
func (a *auditLogUseCaseWithMetrics) Stats(
	ctx context.Context,
	tenantID string,
	since time.Time,
) (*auditDomain.Stats, error) {
	start := time.Now()
	stats, err := a.next.Stats(ctx, tenantID, since)
	a.record(ctx, "audit_log_stats", start, err)
	return stats, err
}

// VerifyBatch records metrics for signature verification.
func (a *auditLogUseCaseWithMetrics) VerifyBatch(
	ctx context.Context,
	from, to *time.Time,
) (*auditDomain.VerificationReport, error) {
	start := time.Now()
	report, err := a.next.VerifyBatch(ctx, from, to)
	a.record(ctx, "audit_log_verify", start, err)
	return report, err
}
