// Package repository persists audit log entries in PostgreSQL and MySQL. Entries are
// only ever inserted.
package repository

import (
	"strings"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	"github.com/allisson/fieldvault/internal/database"
)

const auditColumns = "id, actor_id, tenant_id, entity_type, record_id, field_name, action, outcome, " +
	"caller_ip, metadata, signature, key_version, created_at"

const auditColumnCount = 13

// maxRowsPerInsert keeps multi-row inserts below driver placeholder limits.
const maxRowsPerInsert = 1000

// whereClause renders the filter as a WHERE clause (empty when nothing filters) and
// its bound arguments.
func whereClause(dialect database.Dialect, filter auditDomain.Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+dialect.Placeholder(len(args)))
	}

	if filter.From != nil {
		add("created_at >= ", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= ", *filter.To)
	}
	if filter.ActorID != "" {
		add("actor_id = ", filter.ActorID)
	}
	if filter.TenantID != "" {
		add("tenant_id = ", filter.TenantID)
	}
	if filter.EntityType != "" {
		add("entity_type = ", filter.EntityType)
	}
	if filter.Action != "" {
		add("action = ", string(filter.Action))
	}
	if filter.Outcome != "" {
		add("outcome = ", string(filter.Outcome))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func chunk(entries []*auditDomain.AuditLog) [][]*auditDomain.AuditLog {
	var chunks [][]*auditDomain.AuditLog
	for len(entries) > maxRowsPerInsert {
		chunks = append(chunks, entries[:maxRowsPerInsert])
		entries = entries[maxRowsPerInsert:]
	}
	if len(entries) > 0 {
		chunks = append(chunks, entries)
	}
	return chunks
}

// applyGroupedCount folds one (action, outcome, count) row into stats.
func applyGroupedCount(stats *auditDomain.Stats, action, outcome string, count int) {
	stats.Total += count
	stats.ByAction[auditDomain.Action(action)] += count
	stats.ByOutcome[auditDomain.Outcome(outcome)] += count

	switch auditDomain.Outcome(outcome) {
	case auditDomain.OutcomeDenied:
		stats.Unauthorized += count
	case auditDomain.OutcomeFailed:
		stats.Failed += count
	}
}

// statsQueries returns the three aggregate queries used by Stats. Each takes the
// lower time bound as first argument and, when tenantScoped, the tenant as second.
func statsQueries(dialect database.Dialect, tenantScoped bool) (grouped, recent, actors string) {
	where := " WHERE created_at >= " + dialect.Placeholder(1)
	if tenantScoped {
		where += " AND tenant_id = " + dialect.Placeholder(2)
	}
	grouped = "SELECT action, outcome, COUNT(*) FROM audit_logs" + where + " GROUP BY action, outcome"
	recent = "SELECT COUNT(*) FROM audit_logs" + where
	actors = "SELECT COUNT(DISTINCT actor_id) FROM audit_logs" + where +
		" AND outcome = '" + string(auditDomain.OutcomeDenied) + "' AND actor_id IS NOT NULL"
	return grouped, recent, actors
}
