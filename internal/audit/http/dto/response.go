package dto

import (
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

// AuditLogResponse represents an audit log entry in API responses. The signature is
// not exposed; verification happens server side.
type AuditLogResponse struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id,omitempty"`
	TenantID   string         `json:"tenant_id"`
	EntityType string         `json:"entity_type"`
	RecordID   string         `json:"record_id"`
	FieldName  *string        `json:"field_name,omitempty"`
	Action     string         `json:"action"`
	Outcome    string         `json:"outcome"`
	CallerIP   string         `json:"caller_ip,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	KeyVersion uint16         `json:"key_version"`
	CreatedAt  time.Time      `json:"created_at"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *auditDomain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:         auditLog.ID.String(),
		ActorID:    auditLog.ActorID,
		TenantID:   auditLog.TenantID,
		EntityType: auditLog.EntityType,
		RecordID:   auditLog.RecordID,
		FieldName:  auditLog.FieldName,
		Action:     string(auditLog.Action),
		Outcome:    string(auditLog.Outcome),
		CallerIP:   auditLog.CallerIP,
		Metadata:   auditLog.Metadata,
		KeyVersion: auditLog.KeyVersion,
		CreatedAt:  auditLog.CreatedAt,
	}
}

// ListAuditLogsResponse represents a paginated list of audit logs in API responses.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*auditDomain.AuditLog) ListAuditLogsResponse {
	auditLogResponses := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		auditLogResponses = append(auditLogResponses, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{
		Data: auditLogResponses,
	}
}
