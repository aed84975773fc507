package usecase

import (
	"context"
	"time"

	complianceDomain "github.com/allisson/fieldvault/internal/compliance/domain"
	"github.com/allisson/fieldvault/internal/metrics"
)

// complianceUseCaseWithMetrics decorates ComplianceUseCase with metrics instrumentation.
type complianceUseCaseWithMetrics struct {
	next    ComplianceUseCase
	metrics metrics.BusinessMetrics
}

// NewComplianceUseCaseWithMetrics wraps a ComplianceUseCase with metrics recording.
func NewComplianceUseCaseWithMetrics(useCase ComplianceUseCase, m metrics.BusinessMetrics) ComplianceUseCase {
	return &complianceUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (c *complianceUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "compliance", operation, status)
	c.metrics.RecordDuration(ctx, "compliance", operation, time.Since(start), status)
}

// SelfTest records metrics for the self test; a failed check counts as an error.
func (c *complianceUseCaseWithMetrics) SelfTest(ctx context.Context) complianceDomain.SelfTest {
	start := time.Now()
	result := c.next.SelfTest(ctx)
	c.record(ctx, "self_test", start, !result.Passed())
	return result
}

// Summary records metrics for the audit summary.
func (c *complianceUseCaseWithMetrics) Summary(ctx context.Context, tenantID string) (complianceDomain.Summary, error) {
	start := time.Now()
	summary, err := c.next.Summary(ctx, tenantID)
	c.record(ctx, "summary", start, err != nil)
	return summary, err
}

// Report records metrics for report generation.
func (c *complianceUseCaseWithMetrics) Report(ctx context.Context, tenantID string) (*complianceDomain.Report, error) {
	start := time.Now()
	report, err := c.next.Report(ctx, tenantID)
	c.record(ctx, "report", start, err != nil)
	return report, err
}

// ExportJSON records metrics for report exports.
func (c *complianceUseCaseWithMetrics) ExportJSON(ctx context.Context, tenantID string) ([]byte, string, error) {
	start := time.Now()
	data, filename, err := c.next.ExportJSON(ctx, tenantID)
	c.record(ctx, "export", start, err != nil)
	return data, filename, err
}
