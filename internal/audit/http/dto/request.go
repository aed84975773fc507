// Package dto provides data transfer objects for the audit log HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	customValidation "github.com/allisson/fieldvault/internal/validation"
)

// ListAuditLogsQuery holds the optional filters of GET /v1/audit-logs.
type ListAuditLogsQuery struct {
	ActorID    string `form:"actor_id"`
	EntityType string `form:"entity_type"`
	Action     string `form:"action"`
	Outcome    string `form:"outcome"`
}

// Validate checks the filter values. Empty values mean "no filter".
func (q *ListAuditLogsQuery) Validate() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.ActorID, customValidation.NoWhitespace),
		validation.Field(&q.EntityType, customValidation.Identifier),
		validation.Field(&q.Action, validation.In(toAny(auditDomain.Actions)...)),
		validation.Field(&q.Outcome, validation.In(toAny(auditDomain.Outcomes)...)),
	)
}

// Filter converts the query into a domain filter.
func (q *ListAuditLogsQuery) Filter() auditDomain.Filter {
	return auditDomain.Filter{
		ActorID:    q.ActorID,
		EntityType: q.EntityType,
		Action:     auditDomain.Action(q.Action),
		Outcome:    auditDomain.Outcome(q.Outcome),
	}
}

func toAny[T ~string](values []T) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
