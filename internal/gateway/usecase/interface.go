// Package usecase implements the encryption gateway: the single entry point CRUD
// handlers use to seal sensitive fields on write and to open them, after an access
// check and with an audit entry, on read.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

// FieldCipher seals and opens single field values.
type FieldCipher interface {
	SealString(plaintext string) (string, error)
	OpenString(envelope string) (string, error)
}

// AuditLogger appends entries to the audit trail.
type AuditLogger interface {
	Log(ctx context.Context, entry *auditDomain.AuditLog) error
	LogBatch(ctx context.Context, entries []*auditDomain.AuditLog) error
}

// RecordStore reads stored entity rows together with their owner column.
type RecordStore interface {
	FindByIDs(ctx context.Context, entity registry.Entity, ids []string) ([]*cryptoDomain.SealedRow, error)
}

// GatewayUseCase is the Encryption Gateway.
type GatewayUseCase interface {
	// Encrypt returns a copy of record with every sensitive, non-empty value replaced by
	// its serialized envelope. Unknown entity types are returned unchanged.
	Encrypt(ctx context.Context, entityType string, record gatewayDomain.Record) (gatewayDomain.Record, error)

	// EncryptAs scopes record to the actor's tenant, encrypts it and records an UPDATE
	// entry. A record that names another tenant is rejected.
	EncryptAs(
		ctx context.Context,
		actor *authDomain.Actor,
		entityType string,
		record gatewayDomain.Record,
	) (gatewayDomain.Record, error)

	// Decrypt authorizes actor for record, opens its sensitive fields and writes one
	// audit entry before returning. record must be a row as read from the datastore:
	// its owner column is what the guard checks.
	Decrypt(
		ctx context.Context,
		actor *authDomain.Actor,
		action auditDomain.Action,
		entityType string,
		record gatewayDomain.Record,
	) (gatewayDomain.Record, auditDomain.Outcome, error)

	// DecryptBatch decrypts records independently and in parallel. Results keep input
	// order. All audit entries of the call are written in one batch before returning.
	DecryptBatch(
		ctx context.Context,
		actor *authDomain.Actor,
		action auditDomain.Action,
		entityType string,
		records []gatewayDomain.Record,
	) ([]gatewayDomain.Result, error)

	// DecryptByID loads the stored row id of entityType and decrypts it like Decrypt,
	// so ownership and envelopes never come from the caller. A missing row is audited
	// and reported as ErrRecordNotFound.
	DecryptByID(
		ctx context.Context,
		actor *authDomain.Actor,
		action auditDomain.Action,
		entityType string,
		id string,
	) (gatewayDomain.Record, auditDomain.Outcome, error)

	// DecryptBatchByID loads the stored rows of ids with one query and decrypts them
	// like DecryptBatch. Missing and malformed ids become per-record FAILED results.
	DecryptBatchByID(
		ctx context.Context,
		actor *authDomain.Actor,
		action auditDomain.Action,
		entityType string,
		ids []string,
	) ([]gatewayDomain.Result, error)

	// EncryptValue seals the sensitive fields of a typed value in place.
	EncryptValue(ctx context.Context, value gatewayDomain.Sealable) error

	// DecryptValue opens the sensitive fields of a typed value in place. Fields that
	// fail to open are cleared.
	DecryptValue(
		ctx context.Context,
		actor *authDomain.Actor,
		action auditDomain.Action,
		value gatewayDomain.Sealable,
	) (auditDomain.Outcome, error)
}
