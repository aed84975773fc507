// Package http provides HTTP handlers for sealing and opening entity records.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	authHTTP "github.com/allisson/fieldvault/internal/auth/http"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
	"github.com/allisson/fieldvault/internal/gateway/http/dto"
	gatewayUseCase "github.com/allisson/fieldvault/internal/gateway/usecase"
	"github.com/allisson/fieldvault/internal/httputil"
	customValidation "github.com/allisson/fieldvault/internal/validation"
)

// GatewayHandler handles HTTP requests for record encryption and decryption.
type GatewayHandler struct {
	gatewayUseCase gatewayUseCase.GatewayUseCase
	maxRecords     int
	logger         *slog.Logger
}

// NewGatewayHandler creates a new gateway handler. maxRecords caps batch requests.
func NewGatewayHandler(
	gatewayUseCase gatewayUseCase.GatewayUseCase,
	maxRecords int,
	logger *slog.Logger,
) *GatewayHandler {
	return &GatewayHandler{
		gatewayUseCase: gatewayUseCase,
		maxRecords:     maxRecords,
		logger:         logger,
	}
}

func (h *GatewayHandler) entityType(c *gin.Context) (string, bool) {
	entityType := c.Param("entity_type")
	if err := customValidation.Identifier.Validate(entityType); err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("entity_type: %w", err), h.logger)
		return "", false
	}
	return entityType, true
}

// actor returns the caller resolved by the identity middleware, or nil.
func actor(c *gin.Context) *authDomain.Actor {
	a, _ := authHTTP.GetActor(c.Request.Context())
	return a
}

// EncryptHandler seals the sensitive fields of a record on behalf of the caller.
// POST /v1/records/:entity_type/encrypt
// The record is scoped to the caller's tenant; a record naming another tenant is
// rejected with 403. Unknown entity types are returned unchanged.
func (h *GatewayHandler) EncryptHandler(c *gin.Context) {
	entityType, ok := h.entityType(c)
	if !ok {
		return
	}

	var req dto.EncryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	sealed, err := h.gatewayUseCase.EncryptAs(
		c.Request.Context(),
		actor(c),
		entityType,
		gatewayDomain.Record(req.Record),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RecordResponse{Record: sealed})
}

// DecryptHandler opens the sensitive fields of one stored record.
// POST /v1/records/:entity_type/decrypt
// The record and its owner are read from the datastore by id. Returns 403 when the
// record belongs to another tenant, 404 when it does not exist and 503 when the access
// could not be audited. Fields that fail to open are returned as null with outcome FAILED.
func (h *GatewayHandler) DecryptHandler(c *gin.Context) {
	entityType, ok := h.entityType(c)
	if !ok {
		return
	}

	var req dto.DecryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	action, err := gatewayDomain.ParseAction(req.Action)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	opened, outcome, err := h.gatewayUseCase.DecryptByID(
		c.Request.Context(),
		actor(c),
		action,
		entityType,
		req.ID,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.DecryptResponse{Record: opened, Outcome: string(outcome)})
}

// DecryptBatchHandler opens many stored records in one call.
// POST /v1/records/:entity_type/decrypt-batch
// Denials, missing ids and failures are reported per record; the call itself only
// fails when the rows could not be read or the audit entries could not be written.
func (h *GatewayHandler) DecryptBatchHandler(c *gin.Context) {
	entityType, ok := h.entityType(c)
	if !ok {
		return
	}

	var req dto.DecryptBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(h.maxRecords); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	action, err := gatewayDomain.ParseAction(req.Action)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	results, err := h.gatewayUseCase.DecryptBatchByID(
		c.Request.Context(),
		actor(c),
		action,
		entityType,
		req.IDs,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapResultsToResponse(results))
}
