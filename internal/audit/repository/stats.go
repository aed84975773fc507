package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

func queryStats(
	ctx context.Context,
	querier database.Querier,
	dialect database.Dialect,
	tenantID string,
	since, recentSince time.Time,
) (*auditDomain.Stats, error) {
	grouped, recent, actors := statsQueries(dialect, tenantID != "")
	stats := auditDomain.NewStats(since)

	args := func(bound time.Time) []any {
		if tenantID == "" {
			return []any{bound}
		}
		return []any{bound, tenantID}
	}

	rows, err := querier.QueryContext(ctx, grouped, args(since)...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to aggregate audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var action, outcome string
		var count int
		if err := rows.Scan(&action, &outcome, &count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log aggregate")
		}
		applyGroupedCount(stats, action, outcome, count)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit log aggregates")
	}

	if err := querier.QueryRowContext(ctx, recent, args(recentSince)...).Scan(&stats.Recent); err != nil {
		return nil, apperrors.Wrap(err, "failed to count recent audit logs")
	}
	if err := querier.QueryRowContext(ctx, actors, args(since)...).Scan(&stats.UnauthorizedActors); err != nil {
		return nil, apperrors.Wrap(err, "failed to count unauthorized actors")
	}

	return stats, nil
}

// marshalMetadata returns nil for absent metadata so the column stays NULL.
func marshalMetadata(metadata map[string]any) (any, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log metadata")
	}
	return data, nil
}

// hydrate fills the fields that need conversion after a scan.
func hydrate(
	entry *auditDomain.AuditLog,
	actorID, fieldName sql.NullString,
	action, outcome string,
	metadataJSON []byte,
) error {
	entry.ActorID = actorID.String
	if fieldName.Valid {
		name := fieldName.String
		entry.FieldName = &name
	}
	entry.Action = auditDomain.Action(action)
	entry.Outcome = auditDomain.Outcome(outcome)
	entry.CreatedAt = entry.CreatedAt.UTC()

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal audit log metadata")
		}
	}
	return nil
}
