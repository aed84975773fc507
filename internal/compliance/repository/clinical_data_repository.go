// Package repository counts clinical data for the compliance report.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/registry"
)

// ClientColumn is the column linking clinical records to their client.
const ClientColumn = "client_id"

// ClinicalDataRepository runs the clinical data counts against PostgreSQL or MySQL.
// Table names come from the validated registry.
type ClinicalDataRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// CountClientsWithClinicalData counts distinct clients referenced by any of the
// clinical entity tables, optionally restricted to one tenant.
func (r *ClinicalDataRepository) CountClientsWithClinicalData(
	ctx context.Context,
	sources []registry.Entity,
	tenantID string,
) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	querier := database.GetTx(ctx, r.db)

	selects := make([]string, 0, len(sources))
	args := make([]any, 0, len(sources))
	for _, source := range sources {
		sel := fmt.Sprintf("SELECT %s FROM %s", ClientColumn, source.Table)
		if tenantID != "" {
			args = append(args, tenantID)
			sel += fmt.Sprintf(" WHERE %s = %s", source.TenantColumn, r.dialect.Placeholder(len(args)))
		}
		selects = append(selects, sel)
	}

	query := "SELECT COUNT(DISTINCT " + ClientColumn + ") FROM (" +
		strings.Join(selects, " UNION ") + ") AS clinical"

	var count int
	if err := querier.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count clients with clinical data")
	}
	return count, nil
}

// NewClinicalDataRepository creates a clinical data repository for dialect.
func NewClinicalDataRepository(db *sql.DB, dialect database.Dialect) *ClinicalDataRepository {
	return &ClinicalDataRepository{db: db, dialect: dialect}
}
