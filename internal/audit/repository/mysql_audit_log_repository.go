package repository

import (
	"context"
	"database/sql"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// MySQLAuditLogRepository implements audit log persistence for MySQL.
// Uses BINARY(16) for UUIDs and JSON for metadata.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

func (m *MySQLAuditLogRepository) args(entry *auditDomain.AuditLog) ([]any, error) {
	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log id")
	}

	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return nil, err
	}

	return []any{
		id,
		nullable(entry.ActorID),
		entry.TenantID,
		entry.EntityType,
		entry.RecordID,
		entry.FieldName,
		string(entry.Action),
		string(entry.Outcome),
		entry.CallerIP,
		metadata,
		entry.Signature,
		entry.KeyVersion,
		entry.CreatedAt,
	}, nil
}

// Create inserts a single audit log entry.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, entry *auditDomain.AuditLog) error {
	return m.CreateBatch(ctx, []*auditDomain.AuditLog{entry})
}

// CreateBatch inserts entries with one multi-row INSERT per chunk.
func (m *MySQLAuditLogRepository) CreateBatch(ctx context.Context, entries []*auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	for _, part := range chunk(entries) {
		args := make([]any, 0, len(part)*auditColumnCount)
		for _, entry := range part {
			entryArgs, err := m.args(entry)
			if err != nil {
				return err
			}
			args = append(args, entryArgs...)
		}

		query := "INSERT INTO audit_logs (" + auditColumns + ") VALUES " +
			database.MySQL.ValuesClause(len(part), auditColumnCount)

		if _, err := querier.ExecContext(ctx, query, args...); err != nil {
			return apperrors.Wrap(err, "failed to create audit logs")
		}
	}
	return nil
}

// List returns entries matching filter, newest first.
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter auditDomain.Filter,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	where, args := whereClause(database.MySQL, filter)
	args = append(args, limit, offset)
	query := "SELECT " + auditColumns + " FROM audit_logs" + where +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	auditLogs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		var entry auditDomain.AuditLog
		var id []byte
		var actorID, fieldName sql.NullString
		var action, outcome string
		var metadataJSON []byte

		err := rows.Scan(
			&id,
			&actorID,
			&entry.TenantID,
			&entry.EntityType,
			&entry.RecordID,
			&fieldName,
			&action,
			&outcome,
			&entry.CallerIP,
			&metadataJSON,
			&entry.Signature,
			&entry.KeyVersion,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		if err := entry.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log id")
		}
		if err := hydrate(&entry, actorID, fieldName, action, outcome, metadataJSON); err != nil {
			return nil, err
		}
		auditLogs = append(auditLogs, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return auditLogs, nil
}

// Stats aggregates entries created at or after since.
func (m *MySQLAuditLogRepository) Stats(
	ctx context.Context,
	tenantID string,
	since, recentSince time.Time,
) (*auditDomain.Stats, error) {
	return queryStats(ctx, database.GetTx(ctx, m.db), database.MySQL, tenantID, since, recentSince)
}

// NewMySQLAuditLogRepository creates a new MySQL audit log repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}
