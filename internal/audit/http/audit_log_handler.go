// Package http provides the HTTP handler for querying the audit trail.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/fieldvault/internal/audit/http/dto"
	auditUseCase "github.com/allisson/fieldvault/internal/audit/usecase"
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	authHTTP "github.com/allisson/fieldvault/internal/auth/http"
	"github.com/allisson/fieldvault/internal/httputil"
	customValidation "github.com/allisson/fieldvault/internal/validation"
)

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler retrieves audit logs of the caller's tenant, newest first.
// GET /v1/audit-logs?offset=0&limit=50&created_at_from=...&created_at_to=...&actor_id=...
// &entity_type=...&action=VIEW&outcome=DENIED
// Time boundaries are RFC3339 and inclusive.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok || !actor.HasTenant() {
		httputil.HandleErrorGin(c, authDomain.ErrMissingToken, h.logger)
		return
	}

	page, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	from, to, err := httputil.ParseTimeRange(c, "created_at_from", "created_at_to")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var query dto.ListAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := query.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	filter := query.Filter()
	filter.From = from
	filter.To = to
	// Tenants only ever see their own trail.
	filter.TenantID = actor.TenantID

	auditLogs, err := h.auditLogUseCase.List(c.Request.Context(), page.Offset, page.Limit, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditLogsToListResponse(auditLogs))
}
