package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	"github.com/allisson/fieldvault/internal/database"
)

var listColumns = []string{
	"id", "actor_id", "tenant_id", "entity_type", "record_id", "field_name", "action", "outcome",
	"caller_ip", "metadata", "signature", "key_version", "created_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newEntry() *auditDomain.AuditLog {
	field := "content"
	return &auditDomain.AuditLog{
		ID:         uuid.Must(uuid.NewV7()),
		ActorID:    "therapist-1",
		TenantID:   "clinic-a",
		EntityType: "session_notes",
		RecordID:   "note-1",
		FieldName:  &field,
		Action:     auditDomain.ActionView,
		Outcome:    auditDomain.OutcomeFailed,
		CallerIP:   "10.0.0.1",
		Metadata:   map[string]any{"failed_fields": []any{"content"}},
		Signature:  []byte("signature"),
		KeyVersion: 2,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestWhereClause(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no filter", func(t *testing.T) {
		where, args := whereClause(database.Postgres, auditDomain.Filter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("postgres numbers placeholders", func(t *testing.T) {
		where, args := whereClause(database.Postgres, auditDomain.Filter{
			From:     &from,
			TenantID: "clinic-a",
			Outcome:  auditDomain.OutcomeDenied,
		})
		assert.Equal(t, " WHERE created_at >= $1 AND tenant_id = $2 AND outcome = $3", where)
		assert.Equal(t, []any{from, "clinic-a", "DENIED"}, args)
	})

	t.Run("mysql uses question marks", func(t *testing.T) {
		where, args := whereClause(database.MySQL, auditDomain.Filter{
			ActorID:    "therapist-1",
			EntityType: "anamneses",
			Action:     auditDomain.ActionExport,
		})
		assert.Equal(t, " WHERE actor_id = ? AND entity_type = ? AND action = ?", where)
		assert.Len(t, args, 3)
	})
}

func TestChunk(t *testing.T) {
	entries := make([]*auditDomain.AuditLog, maxRowsPerInsert*2+1)
	chunks := chunk(entries)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], maxRowsPerInsert)
	assert.Len(t, chunks[2], 1)
	assert.Empty(t, chunk(nil))
}

func TestPostgreSQLAuditLogRepository_CreateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("single multi-row insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		first, second := newEntry(), newEntry()
		second.ActorID = ""
		second.FieldName = nil
		second.Metadata = nil

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs ("+auditColumns+") VALUES ($1, ")).
			WithArgs(
				first.ID, first.ActorID, first.TenantID, first.EntityType, first.RecordID, "content",
				"VIEW", "FAILED", first.CallerIP, []byte(`{"failed_fields":["content"]}`),
				first.Signature, first.KeyVersion, first.CreatedAt,
				second.ID, nil, second.TenantID, second.EntityType, second.RecordID, nil,
				"VIEW", "FAILED", second.CallerIP, nil,
				second.Signature, second.KeyVersion, second.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := NewPostgreSQLAuditLogRepository(db).CreateBatch(ctx, []*auditDomain.AuditLog{first, second})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errors.New("connection reset"))

		err := NewPostgreSQLAuditLogRepository(db).Create(ctx, newEntry())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create audit logs")
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		require.NoError(t, NewPostgreSQLAuditLogRepository(db).CreateBatch(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLAuditLogRepository_List(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	entry := newEntry()

	rows := sqlmock.NewRows(listColumns).
		AddRow(entry.ID.String(), entry.ActorID, entry.TenantID, entry.EntityType, entry.RecordID, "content",
			"VIEW", "FAILED", entry.CallerIP, []byte(`{"failed_fields":["content"]}`),
			entry.Signature, int64(2), entry.CreatedAt).
		AddRow(uuid.Must(uuid.NewV7()).String(), nil, "clinic-a", "anamneses", "an-1", nil,
			"UNAUTHORIZED", "DENIED", "10.0.0.2", nil, []byte("sig"), int64(1), entry.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM audit_logs WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3",
	)).
		WithArgs("clinic-a", 50, 0).
		WillReturnRows(rows)

	logs, err := NewPostgreSQLAuditLogRepository(db).List(ctx, 0, 50, auditDomain.Filter{TenantID: "clinic-a"})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, entry.ID, logs[0].ID)
	require.NotNil(t, logs[0].FieldName)
	assert.Equal(t, "content", *logs[0].FieldName)
	assert.Equal(t, auditDomain.OutcomeFailed, logs[0].Outcome)
	assert.Equal(t, uint16(2), logs[0].KeyVersion)
	assert.Equal(t, []any{"content"}, logs[0].Metadata["failed_fields"])

	assert.Empty(t, logs[1].ActorID)
	assert.Nil(t, logs[1].FieldName)
	assert.Nil(t, logs[1].Metadata)
	assert.Equal(t, auditDomain.ActionUnauthorized, logs[1].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLAuditLogRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	entry := newEntry()
	id, err := entry.ID.MarshalBinary()
	require.NoError(t, err)

	t.Run("create uses binary ids", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("VALUES (?, ?, ?")).
			WithArgs(id, entry.ActorID, entry.TenantID, entry.EntityType, entry.RecordID, "content",
				"VIEW", "FAILED", entry.CallerIP, []byte(`{"failed_fields":["content"]}`),
				entry.Signature, entry.KeyVersion, entry.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewMySQLAuditLogRepository(db).Create(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list decodes binary ids", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows(listColumns).
			AddRow(id, entry.ActorID, entry.TenantID, entry.EntityType, entry.RecordID, nil,
				"VIEW", "ALLOWED", entry.CallerIP, nil, entry.Signature, int64(2), entry.CreatedAt)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
			WithArgs(10, 20).
			WillReturnRows(rows)

		logs, err := NewMySQLAuditLogRepository(db).List(ctx, 20, 10, auditDomain.Filter{})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, entry.ID, logs[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list rejects malformed ids", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows(listColumns).
			AddRow([]byte{1, 2, 3}, nil, "clinic-a", "anamneses", "an-1", nil,
				"VIEW", "ALLOWED", "", nil, []byte("sig"), int64(1), entry.CreatedAt)
		mock.ExpectQuery("SELECT").WillReturnRows(rows)

		_, err := NewMySQLAuditLogRepository(db).List(ctx, 0, 10, auditDomain.Filter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal audit log id")
	})
}

func TestAuditLogRepository_Stats(t *testing.T) {
	ctx := context.Background()
	since := time.Now().UTC().Add(-30 * 24 * time.Hour)
	recentSince := time.Now().UTC().Add(-24 * time.Hour)

	t.Run("all tenants", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("GROUP BY action, outcome")).
			WithArgs(since).
			WillReturnRows(sqlmock.NewRows([]string{"action", "outcome", "count"}).
				AddRow("VIEW", "ALLOWED", 40).
				AddRow("VIEW", "DENIED", 3).
				AddRow("UNAUTHORIZED", "DENIED", 2).
				AddRow("VIEW", "FAILED", 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs WHERE created_at >= $1")).
			WithArgs(recentSince).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
		mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT actor_id)")).
			WithArgs(since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		stats, err := NewPostgreSQLAuditLogRepository(db).Stats(ctx, "", since, recentSince)
		require.NoError(t, err)

		assert.Equal(t, 46, stats.Total)
		assert.Equal(t, 44, stats.ByAction[auditDomain.ActionView])
		assert.Equal(t, 2, stats.ByAction[auditDomain.ActionUnauthorized])
		assert.Equal(t, 0, stats.ByAction[auditDomain.ActionExport])
		assert.Equal(t, 40, stats.ByOutcome[auditDomain.OutcomeAllowed])
		assert.Equal(t, 5, stats.Unauthorized)
		assert.Equal(t, 1, stats.Failed)
		assert.Equal(t, 12, stats.Recent)
		assert.Equal(t, 2, stats.UnauthorizedActors)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scoped to one tenant", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE created_at >= ? AND tenant_id = ? GROUP BY action, outcome")).
			WithArgs(since, "clinic-a").
			WillReturnRows(sqlmock.NewRows([]string{"action", "outcome", "count"}))
		mock.ExpectQuery(regexp.QuoteMeta("AND tenant_id = ?")).
			WithArgs(recentSince, "clinic-a").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT actor_id)")).
			WithArgs(since, "clinic-a").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		stats, err := NewMySQLAuditLogRepository(db).Stats(ctx, "clinic-a", since, recentSince)
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
