package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	authService "github.com/allisson/fieldvault/internal/auth/service"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

// Defaults applied when Options leave a value unset.
const (
	DefaultBatchTimeout     = 5 * time.Second
	DefaultBatchConcurrency = 8
)

// Options tunes the batch path.
type Options struct {
	BatchTimeout     time.Duration
	BatchConcurrency int
}

type gatewayUseCase struct {
	registry    *registry.Registry
	cipher      FieldCipher
	store       RecordStore
	guard       authService.Guard
	auditLogger AuditLogger
	logger      *slog.Logger
	timeout     time.Duration
	concurrency int
}

func (g *gatewayUseCase) Encrypt(
	ctx context.Context,
	entityType string,
	record gatewayDomain.Record,
) (gatewayDomain.Record, error) {
	if !g.registry.Known(entityType) {
		return record, nil
	}

	sealed := record.Clone()
	for _, field := range g.registry.FieldsFor(entityType) {
		value, ok := sealed[field]
		if !ok || value == nil {
			continue
		}

		plaintext, ok := value.(string)
		if !ok {
			return nil, apperrors.Wrap(gatewayDomain.ErrNonStringValue, field)
		}
		if plaintext == "" {
			continue
		}

		envelope, err := g.cipher.SealString(plaintext)
		if err != nil {
			return nil, err
		}
		sealed[field] = envelope
	}

	return sealed, nil
}

func (g *gatewayUseCase) EncryptAs(
	ctx context.Context,
	actor *authDomain.Actor,
	entityType string,
	record gatewayDomain.Record,
) (gatewayDomain.Record, error) {
	entity, ok := g.registry.Entity(entityType)
	if !ok {
		return record, nil
	}
	if !actor.HasTenant() {
		return nil, authDomain.ErrAccessDenied
	}

	scoped := record.Clone()
	if scoped == nil {
		scoped = gatewayDomain.Record{}
	}
	if len(scoped.Text(entity.IDColumn)) > gatewayDomain.MaxIdentifierLength {
		return nil, gatewayDomain.ErrInvalidRecordID
	}
	switch owner := scoped.Text(entity.TenantColumn); owner {
	case "":
		scoped[entity.TenantColumn] = actor.TenantID
	case actor.TenantID:
	default:
		return nil, authDomain.ErrTenantMismatch
	}

	sealed, err := g.Encrypt(ctx, entityType, scoped)
	if err != nil {
		return nil, err
	}

	entry := newEntry(actor, auditDomain.ActionUpdate, entity, sealed.Text(entity.IDColumn), actor.TenantID)
	entry.Outcome = auditDomain.OutcomeAllowed
	if err := g.auditLogger.Log(ctx, entry); err != nil {
		return nil, err
	}

	return sealed, nil
}

// auditIdentifier keeps identifiers within the audit columns. Oversized values are
// replaced by their SHA-256 digest.
func auditIdentifier(s string) string {
	if len(s) <= gatewayDomain.MaxIdentifierLength {
		return s
	}
	sum := sha256.Sum256([]byte(s))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func newEntry(
	actor *authDomain.Actor,
	action auditDomain.Action,
	entity registry.Entity,
	recordID, tenantID string,
) *auditDomain.AuditLog {
	entry := &auditDomain.AuditLog{
		TenantID:   auditIdentifier(tenantID),
		EntityType: entity.EntityType,
		RecordID:   auditIdentifier(recordID),
		Action:     action,
	}
	if actor != nil {
		entry.ActorID = auditIdentifier(actor.ID)
		entry.CallerIP = actor.IP
	}
	return entry
}

// rejected resolves a record that never reaches the guard.
func rejected(
	entry *auditDomain.AuditLog,
	err error,
	reason string,
) (gatewayDomain.Result, *auditDomain.AuditLog) {
	entry.Outcome = auditDomain.OutcomeFailed
	entry.Metadata = map[string]any{"reason": reason}
	return gatewayDomain.Result{Outcome: auditDomain.OutcomeFailed, Err: err}, entry
}

// openRecord decides and, when allowed, opens one record. It never calls the cipher
// for a denied record. The returned entry is complete but not yet written.
func (g *gatewayUseCase) openRecord(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entity registry.Entity,
	record gatewayDomain.Record,
) (gatewayDomain.Result, *auditDomain.AuditLog) {
	recordID := record.Text(entity.IDColumn)
	owner := record.Text(entity.TenantColumn)
	entry := newEntry(actor, action, entity, recordID, owner)

	if len(recordID) > gatewayDomain.MaxIdentifierLength || len(owner) > gatewayDomain.MaxIdentifierLength {
		return rejected(entry, gatewayDomain.ErrInvalidRecordID, "invalid_identifier")
	}

	if g.guard.Authorize(actor, owner) == authDomain.Deny {
		entry.Outcome = auditDomain.OutcomeDenied
		if !actor.HasTenant() {
			entry.Action = auditDomain.ActionUnauthorized
		} else {
			entry.Metadata = map[string]any{"actor_tenant_id": actor.TenantID}
		}
		return gatewayDomain.Result{Outcome: auditDomain.OutcomeDenied, Err: authDomain.ErrAccessDenied}, entry
	}

	opened := record.Clone()
	var failed []string
	for _, field := range entity.Fields {
		if ctx.Err() != nil {
			return timedOut(entry)
		}

		value, ok := opened[field]
		if !ok || value == nil {
			continue
		}

		// Anything but an envelope that opens, plaintext included, is masked.
		envelope, ok := value.(string)
		if ok && envelope == "" {
			continue
		}
		if ok {
			if plaintext, err := g.cipher.OpenString(envelope); err == nil {
				opened[field] = plaintext
				continue
			}
		}
		opened[field] = nil
		failed = append(failed, field)
	}

	if len(failed) > 0 {
		entry.Outcome = auditDomain.OutcomeFailed
		entry.FieldName = &failed[0]
		entry.Metadata = map[string]any{"failed_fields": failed}
		return gatewayDomain.Result{
			Record:  opened,
			Outcome: auditDomain.OutcomeFailed,
			Err:     cryptoDomain.ErrDecryptionFailed,
		}, entry
	}

	entry.Outcome = auditDomain.OutcomeAllowed
	return gatewayDomain.Result{Record: opened, Outcome: auditDomain.OutcomeAllowed}, entry
}

func timedOut(entry *auditDomain.AuditLog) (gatewayDomain.Result, *auditDomain.AuditLog) {
	entry.Outcome = auditDomain.OutcomeFailed
	entry.FieldName = nil
	entry.Metadata = map[string]any{"reason": "timeout"}
	return gatewayDomain.Result{Outcome: auditDomain.OutcomeFailed, Err: gatewayDomain.ErrBatchTimeout}, entry
}

// finish writes the entry of a single record and releases its data.
func (g *gatewayUseCase) finish(
	ctx context.Context,
	result gatewayDomain.Result,
	entry *auditDomain.AuditLog,
) (gatewayDomain.Record, auditDomain.Outcome, error) {
	if err := g.auditLogger.Log(ctx, entry); err != nil {
		if result.Outcome == auditDomain.OutcomeDenied {
			return nil, result.Outcome, apperrors.Join(result.Err, err)
		}
		return nil, result.Outcome, err
	}

	// Denied, rejected and interrupted records carry no data.
	if result.Record == nil {
		return nil, result.Outcome, result.Err
	}
	if result.Outcome == auditDomain.OutcomeFailed {
		g.logger.WarnContext(ctx, "sensitive fields could not be opened",
			slog.String("entity_type", entry.EntityType),
			slog.String("record_id", entry.RecordID),
			slog.Any("fields", entry.Metadata["failed_fields"]),
		)
	}
	return result.Record, result.Outcome, nil
}

func (g *gatewayUseCase) Decrypt(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	record gatewayDomain.Record,
) (gatewayDomain.Record, auditDomain.Outcome, error) {
	entity, ok := g.registry.Entity(entityType)
	if !ok {
		return record, auditDomain.OutcomeAllowed, nil
	}

	result, entry := g.openRecord(ctx, actor, action, entity, record)
	return g.finish(ctx, result, entry)
}

// load reads the stored rows of ids, keyed by id.
func (g *gatewayUseCase) load(
	ctx context.Context,
	entity registry.Entity,
	ids []string,
) (map[string]gatewayDomain.Record, error) {
	rows, err := g.store.FindByIDs(ctx, entity, ids)
	if err != nil {
		return nil, err
	}

	records := make(map[string]gatewayDomain.Record, len(rows))
	for _, row := range rows {
		record := gatewayDomain.Record{entity.IDColumn: row.ID, entity.TenantColumn: row.Owner}
		for name, value := range row.Fields {
			if value == nil {
				record[name] = nil
			} else {
				record[name] = *value
			}
		}
		records[row.ID] = record
	}
	return records, nil
}

func validID(id string) bool {
	return id != "" && len(id) <= gatewayDomain.MaxIdentifierLength
}

func (g *gatewayUseCase) DecryptByID(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	id string,
) (gatewayDomain.Record, auditDomain.Outcome, error) {
	entity, ok := g.registry.Entity(entityType)
	if !ok {
		return nil, "", apperrors.Wrap(registry.ErrUnknownEntityType, entityType)
	}
	if !validID(id) {
		return nil, "", gatewayDomain.ErrInvalidRecordID
	}

	records, err := g.load(ctx, entity, []string{id})
	if err != nil {
		return nil, "", err
	}

	record, found := records[id]
	if !found {
		result, entry := rejected(newEntry(actor, action, entity, id, actorTenant(actor)),
			gatewayDomain.ErrRecordNotFound, "not_found")
		return g.finish(ctx, result, entry)
	}

	result, entry := g.openRecord(ctx, actor, action, entity, record)
	return g.finish(ctx, result, entry)
}

func (g *gatewayUseCase) DecryptBatch(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	records []gatewayDomain.Record,
) ([]gatewayDomain.Result, error) {
	entity, ok := g.registry.Entity(entityType)
	if !ok {
		results := make([]gatewayDomain.Result, len(records))
		for i, record := range records {
			results[i] = gatewayDomain.Result{Index: i, Record: record, Outcome: auditDomain.OutcomeAllowed}
		}
		return results, nil
	}

	return g.runBatch(ctx, actor, action, entity, records, make([]gatewayDomain.Result, len(records)),
		make([]*auditDomain.AuditLog, len(records)))
}

func (g *gatewayUseCase) DecryptBatchByID(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	ids []string,
) ([]gatewayDomain.Result, error) {
	entity, ok := g.registry.Entity(entityType)
	if !ok {
		return nil, apperrors.Wrap(registry.ErrUnknownEntityType, entityType)
	}

	lookup := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			lookup = append(lookup, id)
		}
	}
	stored, err := g.load(ctx, entity, lookup)
	if err != nil {
		return nil, err
	}

	records := make([]gatewayDomain.Record, len(ids))
	results := make([]gatewayDomain.Result, len(ids))
	entries := make([]*auditDomain.AuditLog, len(ids))
	for i, id := range ids {
		record, found := stored[id]
		switch {
		case !validID(id):
			results[i], entries[i] = rejected(newEntry(actor, action, entity, id, actorTenant(actor)),
				gatewayDomain.ErrInvalidRecordID, "invalid_identifier")
		case !found:
			results[i], entries[i] = rejected(newEntry(actor, action, entity, id, actorTenant(actor)),
				gatewayDomain.ErrRecordNotFound, "not_found")
		default:
			records[i] = record
		}
	}

	return g.runBatch(ctx, actor, action, entity, records, results, entries)
}

// runBatch opens every record whose entry is still nil in a bounded pool, then
// writes all entries of the call in one batch.
func (g *gatewayUseCase) runBatch(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entity registry.Entity,
	records []gatewayDomain.Record,
	results []gatewayDomain.Result,
	entries []*auditDomain.AuditLog,
) ([]gatewayDomain.Result, error) {
	batchCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var group errgroup.Group
	group.SetLimit(g.concurrency)

	for i, record := range records {
		if batchCtx.Err() != nil {
			break
		}
		if entries[i] != nil {
			continue
		}
		group.Go(func() error {
			if batchCtx.Err() != nil {
				return nil
			}
			results[i], entries[i] = g.openRecord(batchCtx, actor, action, entity, record)
			return nil
		})
	}
	_ = group.Wait()

	timeouts := 0
	for i, record := range records {
		if entries[i] == nil {
			results[i], entries[i] = timedOut(newEntry(actor, action, entity,
				record.Text(entity.IDColumn), record.Text(entity.TenantColumn)))
		}
		if apperrors.Is(results[i].Err, gatewayDomain.ErrBatchTimeout) {
			timeouts++
		}
		results[i].Index = i
	}

	if timeouts > 0 {
		g.logger.WarnContext(ctx, "batch decrypt timed out",
			slog.String("entity_type", entity.EntityType),
			slog.Int("records", len(records)),
			slog.Int("unresolved", timeouts),
		)
	}

	// Entries are written with the caller's context: the batch deadline only bounds
	// the cryptographic work.
	if err := g.auditLogger.LogBatch(ctx, entries); err != nil {
		return nil, err
	}

	return results, nil
}

func actorTenant(actor *authDomain.Actor) string {
	if actor == nil {
		return ""
	}
	return actor.TenantID
}

// NewGatewayUseCase creates the Encryption Gateway.
func NewGatewayUseCase(
	reg *registry.Registry,
	cipher FieldCipher,
	store RecordStore,
	guard authService.Guard,
	auditLogger AuditLogger,
	logger *slog.Logger,
	opts Options,
) GatewayUseCase {
	timeout := opts.BatchTimeout
	if timeout <= 0 {
		timeout = DefaultBatchTimeout
	}
	concurrency := opts.BatchConcurrency
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	return &gatewayUseCase{
		registry:    reg,
		cipher:      cipher,
		store:       store,
		guard:       guard,
		auditLogger: auditLogger,
		logger:      logger,
		timeout:     timeout,
		concurrency: concurrency,
	}
}
