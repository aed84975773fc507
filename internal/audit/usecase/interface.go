// Package usecase implements the audit trail: signed, append-only writes with a
// configurable failure policy, filtered listing, aggregation and signature verification.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

// AuditLogRepository persists audit entries. Implementations only insert and read.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *auditDomain.AuditLog) error
	CreateBatch(ctx context.Context, entries []*auditDomain.AuditLog) error
	List(ctx context.Context, offset, limit int, filter auditDomain.Filter) ([]*auditDomain.AuditLog, error)
	Stats(ctx context.Context, tenantID string, since, recentSince time.Time) (*auditDomain.Stats, error)
}

// AuditLogUseCase is the Audit Logger.
type AuditLogUseCase interface {
	// Log signs and appends one entry. ID and CreatedAt are assigned here.
	Log(ctx context.Context, entry *auditDomain.AuditLog) error

	// LogBatch signs and appends entries atomically in one transaction.
	LogBatch(ctx context.Context, entries []*auditDomain.AuditLog) error

	// List returns entries matching filter, newest first.
	List(ctx context.Context, offset, limit int, filter auditDomain.Filter) ([]*auditDomain.AuditLog, error)

	// Stats aggregates entries created at or after since. An empty tenantID aggregates
	// every tenant.
	Stats(ctx context.Context, tenantID string, since time.Time) (*auditDomain.Stats, error)

	// VerifyBatch recomputes the signature of every entry created in [from, to].
	// A nil to means now; a nil from means the beginning of the trail.
	VerifyBatch(ctx context.Context, from, to *time.Time) (*auditDomain.VerificationReport, error)
}
