package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	auditService "github.com/allisson/fieldvault/internal/audit/service"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/metrics"
)

// verifyPageSize is the number of entries loaded per query while verifying.
const verifyPageSize = 500

// Options configures the audit use case.
type Options struct {
	// FailOpen lets the originating operation continue when a write fails.
	FailOpen bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

type auditLogUseCase struct {
	txManager    database.TxManager
	auditLogRepo AuditLogRepository
	signer       auditService.AuditSigner
	alerts       metrics.AuditAlerts
	logger       *slog.Logger
	failOpen     bool
	now          func() time.Time
}

func (a *auditLogUseCase) prepare(entry *auditDomain.AuditLog) error {
	id, err := uuid.NewV7()
	if err != nil {
		return apperrors.Wrap(err, "failed to generate audit log id")
	}
	entry.ID = id
	entry.CreatedAt = a.now().UTC().Truncate(time.Microsecond)

	return a.signer.Sign(entry)
}

// handleFailure applies the failure policy to a write error.
func (a *auditLogUseCase) handleFailure(ctx context.Context, entries []*auditDomain.AuditLog, err error) error {
	for _, entry := range entries {
		a.alerts.RecordAuditWriteFailure(ctx, entry.EntityType, string(entry.Action))
	}

	if a.failOpen {
		a.logger.ErrorContext(ctx, "audit write failed, continuing under fail-open policy",
			slog.Int("entries", len(entries)),
			slog.Any("error", err),
		)
		return nil
	}

	return apperrors.Wrap(auditDomain.ErrAuditWriteFailure, err.Error())
}

func (a *auditLogUseCase) recordOutcomes(ctx context.Context, entries []*auditDomain.AuditLog) {
	for _, entry := range entries {
		a.alerts.RecordOutcome(ctx, entry.EntityType, string(entry.Outcome))
	}
}

func (a *auditLogUseCase) Log(ctx context.Context, entry *auditDomain.AuditLog) error {
	entries := []*auditDomain.AuditLog{entry}

	if err := a.prepare(entry); err != nil {
		return a.handleFailure(ctx, entries, err)
	}
	if err := a.auditLogRepo.Create(ctx, entry); err != nil {
		return a.handleFailure(ctx, entries, err)
	}

	a.recordOutcomes(ctx, entries)
	return nil
}

func (a *auditLogUseCase) LogBatch(ctx context.Context, entries []*auditDomain.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}

	for _, entry := range entries {
		if err := a.prepare(entry); err != nil {
			return a.handleFailure(ctx, entries, err)
		}
	}

	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		return a.auditLogRepo.CreateBatch(ctx, entries)
	})
	if err != nil {
		return a.handleFailure(ctx, entries, err)
	}

	a.recordOutcomes(ctx, entries)
	return nil
}

func (a *auditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	filter auditDomain.Filter,
) ([]*auditDomain.AuditLog, error) {
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, auditDomain.ErrInvalidAction
	}
	if filter.Outcome != "" && !filter.Outcome.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid outcome")
	}

	return a.auditLogRepo.List(ctx, offset, limit, filter)
}

func (a *auditLogUseCase) Stats(ctx context.Context, tenantID string, since time.Time) (*auditDomain.Stats, error) {
	return a.auditLogRepo.Stats(ctx, tenantID, since, a.now().UTC().Add(-24*time.Hour))
}

func (a *auditLogUseCase) VerifyBatch(
	ctx context.Context,
	from, to *time.Time,
) (*auditDomain.VerificationReport, error) {
	if to == nil {
		now := a.now().UTC()
		to = &now
	}

	report := &auditDomain.VerificationReport{From: from, To: to, InvalidIDs: make([]uuid.UUID, 0)}
	filter := auditDomain.Filter{From: from, To: to}

	for offset := 0; ; offset += verifyPageSize {
		entries, err := a.auditLogRepo.List(ctx, offset, verifyPageSize, filter)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			report.Total++
			// Entries signed with a key that is no longer loaded cannot be trusted either.
			if err := a.signer.Verify(entry); err != nil {
				report.Invalid++
				report.InvalidIDs = append(report.InvalidIDs, entry.ID)
				continue
			}
			report.Valid++
		}

		if len(entries) < verifyPageSize {
			return report, nil
		}
	}
}

// NewAuditLogUseCase creates the Audit Logger.
func NewAuditLogUseCase(
	txManager database.TxManager,
	auditLogRepo AuditLogRepository,
	signer auditService.AuditSigner,
	alerts metrics.AuditAlerts,
	logger *slog.Logger,
	opts Options,
) AuditLogUseCase {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &auditLogUseCase{
		txManager:    txManager,
		auditLogRepo: auditLogRepo,
		signer:       signer,
		alerts:       alerts,
		logger:       logger,
		failOpen:     opts.FailOpen,
		now:          now,
	}
}
