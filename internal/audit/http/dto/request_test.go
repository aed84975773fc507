package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

func TestListAuditLogsQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   ListAuditLogsQuery
		wantErr bool
	}{
		{name: "empty", query: ListAuditLogsQuery{}},
		{
			name: "all filters",
			query: ListAuditLogsQuery{
				ActorID:    "therapist-1",
				EntityType: "session_notes",
				Action:     "EXPORT",
				Outcome:    "DENIED",
			},
		},
		{name: "unknown action", query: ListAuditLogsQuery{Action: "READ"}, wantErr: true},
		{name: "lowercase outcome", query: ListAuditLogsQuery{Outcome: "denied"}, wantErr: true},
		{name: "entity type with sql", query: ListAuditLogsQuery{EntityType: "notes;drop"}, wantErr: true},
		{name: "actor with padding", query: ListAuditLogsQuery{ActorID: " therapist-1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListAuditLogsQuery_Filter(t *testing.T) {
	q := ListAuditLogsQuery{ActorID: "a", EntityType: "anamneses", Action: "VIEW", Outcome: "FAILED"}
	assert.Equal(t, auditDomain.Filter{
		ActorID:    "a",
		EntityType: "anamneses",
		Action:     auditDomain.ActionView,
		Outcome:    auditDomain.OutcomeFailed,
	}, q.Filter())
}
