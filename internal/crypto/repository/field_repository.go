package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/registry"
)

// FieldRepository reads and rewrites the sensitive columns of registry entity tables.
//
// Table and column names come from the validated registry (lowercase identifiers
// only), so they are interpolated; every value is bound.
type FieldRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// ListPage returns up to limit rows of entity ordered by id, starting after the id
// cursor. An empty cursor starts at the beginning of the table.
func (f *FieldRepository) ListPage(
	ctx context.Context,
	entity registry.Entity,
	cursor string,
	limit int,
) ([]*cryptoDomain.SealedRow, error) {
	querier := database.GetTx(ctx, f.db)

	columns := append([]string{entity.IDColumn}, entity.Fields...)
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(columns, ", "), entity.Table)

	args := make([]any, 0, 2)
	if cursor != "" {
		args = append(args, cursor)
		fmt.Fprintf(&sb, " WHERE %s > %s", entity.IDColumn, f.dialect.Placeholder(len(args)))
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY %s LIMIT %s", entity.IDColumn, f.dialect.Placeholder(len(args)))

	rows, err := querier.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list "+entity.Table)
	}
	return scanSealedRows(rows, entity.Fields, false)
}

// FindByIDs returns the stored rows of entity with the given ids, owner column
// included. Ids without a row are absent from the result.
func (f *FieldRepository) FindByIDs(
	ctx context.Context,
	entity registry.Entity,
	ids []string,
) ([]*cryptoDomain.SealedRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	querier := database.GetTx(ctx, f.db)

	columns := append([]string{entity.IDColumn, entity.TenantColumn}, entity.Fields...)
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
		placeholders[i] = f.dialect.Placeholder(i + 1)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IN (%s)",
		strings.Join(columns, ", "),
		entity.Table,
		f.dialect.AsText(entity.IDColumn),
		strings.Join(placeholders, ", "),
	)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read "+entity.Table)
	}
	return scanSealedRows(rows, entity.Fields, true)
}

// scanSealedRows reads id, optionally the owner, then one nullable column per field.
func scanSealedRows(rows *sql.Rows, fields []string, withOwner bool) ([]*cryptoDomain.SealedRow, error) {
	defer func() {
		_ = rows.Close()
	}()

	var result []*cryptoDomain.SealedRow
	for rows.Next() {
		row := &cryptoDomain.SealedRow{Fields: make(map[string]*string, len(fields))}
		values := make([]sql.NullString, len(fields))
		dest := []any{&row.ID}
		if withOwner {
			dest = append(dest, &row.Owner)
		}
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		for i, field := range fields {
			if values[i].Valid {
				v := values[i].String
				row.Fields[field] = &v
			} else {
				row.Fields[field] = nil
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Update writes the given columns of one row. Columns are written in name order.
func (f *FieldRepository) Update(
	ctx context.Context,
	entity registry.Entity,
	id string,
	values map[string]*string,
) error {
	if len(values) == 0 {
		return nil
	}
	querier := database.GetTx(ctx, f.db)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		args = append(args, values[name])
		sets = append(sets, fmt.Sprintf("%s = %s", name, f.dialect.Placeholder(len(args))))
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = %s",
		entity.Table,
		strings.Join(sets, ", "),
		entity.IDColumn,
		f.dialect.Placeholder(len(args)),
	)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to update "+entity.Table)
	}
	return nil
}

// NewFieldRepository creates a field repository for the given SQL dialect.
func NewFieldRepository(db *sql.DB, dialect database.Dialect) *FieldRepository {
	return &FieldRepository{db: db, dialect: dialect}
}
