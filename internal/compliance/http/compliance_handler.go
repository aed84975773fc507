// Package http provides the HTTP handlers of the compliance reporter.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	authHTTP "github.com/allisson/fieldvault/internal/auth/http"
	"github.com/allisson/fieldvault/internal/compliance/http/dto"
	complianceUseCase "github.com/allisson/fieldvault/internal/compliance/usecase"
	"github.com/allisson/fieldvault/internal/httputil"
)

// ComplianceHandler handles HTTP requests for the compliance reporter.
type ComplianceHandler struct {
	complianceUseCase complianceUseCase.ComplianceUseCase
	logger            *slog.Logger
}

// NewComplianceHandler creates a new compliance handler.
func NewComplianceHandler(
	complianceUseCase complianceUseCase.ComplianceUseCase,
	logger *slog.Logger,
) *ComplianceHandler {
	return &ComplianceHandler{
		complianceUseCase: complianceUseCase,
		logger:            logger,
	}
}

// SelfTestHandler seals and opens a canary value.
// GET /v1/compliance/self-test
func (h *ComplianceHandler) SelfTestHandler(c *gin.Context) {
	if _, ok := authHTTP.GetActor(c.Request.Context()); !ok {
		httputil.HandleErrorGin(c, authDomain.ErrMissingToken, h.logger)
		return
	}

	result := h.complianceUseCase.SelfTest(c.Request.Context())
	c.JSON(http.StatusOK, dto.MapSelfTestToResponse(result))
}

// tenantOf returns the tenant of the caller or writes a 401.
func (h *ComplianceHandler) tenantOf(c *gin.Context) (string, bool) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok || !actor.HasTenant() {
		httputil.HandleErrorGin(c, authDomain.ErrMissingToken, h.logger)
		return "", false
	}
	return actor.TenantID, true
}

// ReportHandler builds the compliance report of the caller's tenant.
// GET /v1/compliance/report
func (h *ComplianceHandler) ReportHandler(c *gin.Context) {
	tenantID, ok := h.tenantOf(c)
	if !ok {
		return
	}

	report, err := h.complianceUseCase.Report(c.Request.Context(), tenantID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportHandler downloads the compliance report of the caller's tenant as a JSON file.
// GET /v1/compliance/report/export
func (h *ComplianceHandler) ExportHandler(c *gin.Context) {
	tenantID, ok := h.tenantOf(c)
	if !ok {
		return
	}

	data, filename, err := h.complianceUseCase.ExportJSON(c.Request.Context(), tenantID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/json", data)
}
