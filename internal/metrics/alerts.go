package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuditAlerts records signals that operators alert on: audit writes that failed while
// the data operation was allowed to continue, and per-record decryption outcomes.
type AuditAlerts interface {
	// RecordAuditWriteFailure counts an audit entry that could not be persisted.
	RecordAuditWriteFailure(ctx context.Context, entityType, action string)

	// RecordOutcome counts a per-record decryption outcome (ALLOWED, DENIED, FAILED).
	RecordOutcome(ctx context.Context, entityType, outcome string)
}

type auditAlerts struct {
	writeFailures metric.Int64Counter
	outcomes      metric.Int64Counter
}

// NewAuditAlerts creates the audit alert instruments on the given meter provider.
func NewAuditAlerts(meterProvider metric.MeterProvider, namespace string) (AuditAlerts, error) {
	meter := meterProvider.Meter(namespace)

	writeFailures, err := meter.Int64Counter(
		fmt.Sprintf("%s_audit_write_failures_total", namespace),
		metric.WithDescription("Audit entries that could not be persisted"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit write failure counter: %w", err)
	}

	outcomes, err := meter.Int64Counter(
		fmt.Sprintf("%s_record_outcomes_total", namespace),
		metric.WithDescription("Per-record decryption outcomes"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create record outcome counter: %w", err)
	}

	return &auditAlerts{writeFailures: writeFailures, outcomes: outcomes}, nil
}

func (a *auditAlerts) RecordAuditWriteFailure(ctx context.Context, entityType, action string) {
	a.writeFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("entity_type", entityType),
			attribute.String("action", action),
		),
	)
}

func (a *auditAlerts) RecordOutcome(ctx context.Context, entityType, outcome string) {
	a.outcomes.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("entity_type", entityType),
			attribute.String("outcome", outcome),
		),
	)
}

// NoOpAuditAlerts discards every signal.
type NoOpAuditAlerts struct{}

// NewNoOpAuditAlerts creates a no-op AuditAlerts implementation.
func NewNoOpAuditAlerts() AuditAlerts {
	return &NoOpAuditAlerts{}
}

// RecordAuditWriteFailure does nothing.
func (n *NoOpAuditAlerts) RecordAuditWriteFailure(ctx context.Context, entityType, action string) {}

// RecordOutcome does nothing.
func (n *NoOpAuditAlerts) RecordOutcome(ctx context.Context, entityType, outcome string) {}
