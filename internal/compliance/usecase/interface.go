// Package usecase implements the compliance reporter: a canary self test of the
// crypto engine, an audit summary and a report with configuration driven
// recommendations.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	complianceDomain "github.com/allisson/fieldvault/internal/compliance/domain"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

// Cipher is the crypto engine as seen by the self test.
type Cipher interface {
	SealString(plaintext string) (string, error)
	OpenString(envelope string) (string, error)
	ActiveKeyVersion() uint16
	Algorithm() cryptoDomain.Algorithm
}

// KeyLister lists the stored data keys.
type KeyLister interface {
	List(ctx context.Context) ([]*cryptoDomain.DataKey, error)
}

// AuditReader reads the audit trail.
type AuditReader interface {
	Stats(ctx context.Context, tenantID string, since time.Time) (*auditDomain.Stats, error)
	VerifyBatch(ctx context.Context, from, to *time.Time) (*auditDomain.VerificationReport, error)
}

// ClinicalDataRepository counts clients with clinical records.
type ClinicalDataRepository interface {
	CountClientsWithClinicalData(ctx context.Context, sources []registry.Entity, tenantID string) (int, error)
}

// ComplianceUseCase is the Compliance Reporter. It only reads.
type ComplianceUseCase interface {
	// SelfTest seals and opens a canary value with the active key.
	SelfTest(ctx context.Context) complianceDomain.SelfTest

	// Summary aggregates the audit trail over the configured window. An empty
	// tenantID summarizes every tenant.
	Summary(ctx context.Context, tenantID string) (complianceDomain.Summary, error)

	// Report builds the full report. Audit signatures are verified only for the
	// system wide report (empty tenantID).
	Report(ctx context.Context, tenantID string) (*complianceDomain.Report, error)

	// ExportJSON renders the report as indented JSON and proposes a file name.
	ExportJSON(ctx context.Context, tenantID string) ([]byte, string, error)
}
