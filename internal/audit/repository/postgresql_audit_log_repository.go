package repository

import (
	"context"
	"database/sql"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// PostgreSQLAuditLogRepository implements audit log persistence for PostgreSQL using
// the native UUID type and JSONB metadata.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

func (p *PostgreSQLAuditLogRepository) args(entry *auditDomain.AuditLog) ([]any, error) {
	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return nil, err
	}

	return []any{
		entry.ID,
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
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, entry *auditDomain.AuditLog) error {
	return p.CreateBatch(ctx, []*auditDomain.AuditLog{entry})
}

// CreateBatch inserts entries with one multi-row INSERT per chunk. Callers wrap it in
// a transaction to make the batch atomic.
func (p *PostgreSQLAuditLogRepository) CreateBatch(ctx context.Context, entries []*auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	for _, part := range chunk(entries) {
		args := make([]any, 0, len(part)*auditColumnCount)
		for _, entry := range part {
			entryArgs, err := p.args(entry)
			if err != nil {
				return err
			}
			args = append(args, entryArgs...)
		}

		query := "INSERT INTO audit_logs (" + auditColumns + ") VALUES " +
			database.Postgres.ValuesClause(len(part), auditColumnCount)

		if _, err := querier.ExecContext(ctx, query, args...); err != nil {
			return apperrors.Wrap(err, "failed to create audit logs")
		}
	}
	return nil
}

// List returns entries matching filter, newest first.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter auditDomain.Filter,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	where, args := whereClause(database.Postgres, filter)
	args = append(args, limit, offset)
	query := "SELECT " + auditColumns + " FROM audit_logs" + where +
		" ORDER BY created_at DESC, id DESC LIMIT " + database.Postgres.Placeholder(len(args)-1) +
		" OFFSET " + database.Postgres.Placeholder(len(args))

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
		var actorID, fieldName sql.NullString
		var action, outcome string
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
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

// Stats aggregates entries created at or after since, optionally for one tenant;
// Recent counts entries at or after recentSince.
func (p *PostgreSQLAuditLogRepository) Stats(
	ctx context.Context,
	tenantID string,
	since, recentSince time.Time,
) (*auditDomain.Stats, error) {
	return queryStats(ctx, database.GetTx(ctx, p.db), database.Postgres, tenantID, since, recentSince)
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL audit log repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}
