package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	complianceDomain "github.com/allisson/fieldvault/internal/compliance/domain"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/registry"
)

// ClinicalEntityTypes are the registry entity types whose rows make a client count
// as having clinical data.
var ClinicalEntityTypes = []string{"anamneses", "session_notes"}

type complianceUseCase struct {
	cipher       Cipher
	keyLister    KeyLister
	auditReader  AuditReader
	clinicalRepo ClinicalDataRepository
	registry     *registry.Registry
	thresholds   complianceDomain.Thresholds
	logger       *slog.Logger
	now          func() time.Time
}

// canaryPrefix is sealed with a random suffix so no two self tests share plaintext.
const canaryPrefix = "fieldvault-self-test:"

func (c *complianceUseCase) SelfTest(ctx context.Context) complianceDomain.SelfTest {
	var result complianceDomain.SelfTest
	if c.cipher == nil {
		return result
	}

	result.Algorithm = string(c.cipher.Algorithm())
	result.ActiveKeyVersion = c.cipher.ActiveKeyVersion()
	result.KeyConfigured = result.ActiveKeyVersion > 0
	if !result.KeyConfigured {
		return result
	}

	canary := canaryPrefix + uuid.NewString()
	envelope, err := c.cipher.SealString(canary)
	if err != nil {
		c.logger.ErrorContext(ctx, "self test could not seal the canary", slog.Any("error", err))
		return result
	}
	result.KeyValid = true

	opened, err := c.cipher.OpenString(envelope)
	if err != nil {
		c.logger.ErrorContext(ctx, "self test could not open the canary", slog.Any("error", err))
		return result
	}
	result.RoundTripPassed = opened == canary
	return result
}

func (c *complianceUseCase) Summary(ctx context.Context, tenantID string) (complianceDomain.Summary, error) {
	since := c.now().UTC().Add(-c.thresholds.Window)
	stats, err := c.auditReader.Stats(ctx, tenantID, since)
	if err != nil {
		return complianceDomain.Summary{}, apperrors.Wrap(err, "failed to summarize audit logs")
	}
	return complianceDomain.NewSummary(c.thresholds.Window, stats), nil
}

// keyAge returns the age of the newest data key, or nil when none exists.
func (c *complianceUseCase) keyAge(ctx context.Context) (*time.Duration, error) {
	keys, err := c.keyLister.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list data keys")
	}

	var newest time.Time
	var newestVersion uint16
	for _, key := range keys {
		if key.Version > newestVersion {
			newestVersion = key.Version
			newest = key.CreatedAt
		}
	}
	if newestVersion == 0 {
		return nil, nil
	}

	age := c.now().Sub(newest)
	return &age, nil
}

func (c *complianceUseCase) clinicalSources() []registry.Entity {
	sources := make([]registry.Entity, 0, len(ClinicalEntityTypes))
	for _, entityType := range ClinicalEntityTypes {
		if entity, ok := c.registry.Entity(entityType); ok {
			sources = append(sources, entity)
		}
	}
	return sources
}

func (c *complianceUseCase) Report(ctx context.Context, tenantID string) (*complianceDomain.Report, error) {
	generatedAt := c.now().UTC()

	summary, err := c.Summary(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	keyAge, err := c.keyAge(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := c.clinicalRepo.CountClientsWithClinicalData(ctx, c.clinicalSources(), tenantID)
	if err != nil {
		return nil, err
	}

	var signatures *complianceDomain.SignatureCheck
	if tenantID == "" {
		from := summary.Since
		verification, err := c.auditReader.VerifyBatch(ctx, &from, &generatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to verify audit signatures")
		}
		signatures = &complianceDomain.SignatureCheck{
			Checked: verification.Total,
			Invalid: verification.Invalid,
		}
		for _, id := range verification.InvalidIDs {
			signatures.IDs = append(signatures.IDs, id.String())
		}
	}

	selfTest := c.SelfTest(ctx)

	report := &complianceDomain.Report{
		GeneratedAt:             generatedAt,
		TenantID:                tenantID,
		RegistryVersion:         c.registry.Version(),
		RegistryFingerprint:     c.registry.Fingerprint(),
		EntityTypes:             c.registry.EntityTypes(),
		SelfTest:                selfTest,
		Summary:                 summary,
		ClientsWithClinicalData: clients,
		Signatures:              signatures,
		Recommendations: complianceDomain.Recommend(
			selfTest, summary, keyAge, signatures, c.thresholds,
		),
	}
	if keyAge != nil {
		days := int(*keyAge / (24 * time.Hour))
		report.KeyAgeDays = &days
	}

	return report, nil
}

func (c *complianceUseCase) ExportJSON(ctx context.Context, tenantID string) ([]byte, string, error) {
	report, err := c.Report(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, "", apperrors.Wrap(err, "failed to encode compliance report")
	}

	filename := "compliance-report-" + report.GeneratedAt.Format("20060102T150405Z") + ".json"
	return data, filename, nil
}

// Options configures the reporter.
type Options struct {
	Thresholds complianceDomain.Thresholds
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewComplianceUseCase creates the Compliance Reporter. cipher may be nil when no key
// could be loaded; the self test then reports the key as not configured.
func NewComplianceUseCase(
	cipher Cipher,
	keyLister KeyLister,
	auditReader AuditReader,
	clinicalRepo ClinicalDataRepository,
	reg *registry.Registry,
	logger *slog.Logger,
	opts Options,
) ComplianceUseCase {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &complianceUseCase{
		cipher:       cipher,
		keyLister:    keyLister,
		auditReader:  auditReader,
		clinicalRepo: clinicalRepo,
		registry:     reg,
		thresholds:   opts.Thresholds,
		logger:       logger,
		now:          now,
	}
}
