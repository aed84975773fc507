package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	authHTTP "github.com/allisson/fieldvault/internal/auth/http"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
	"github.com/allisson/fieldvault/internal/gateway/http/dto"
	"github.com/allisson/fieldvault/internal/gateway/usecase/mocks"
)

var testActor = &authDomain.Actor{ID: "therapist-1", TenantID: "clinic-a", IP: "192.0.2.1"}

func setupTestGatewayHandler(t *testing.T) (*GatewayHandler, *mocks.MockGatewayUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockGateway := mocks.NewMockGatewayUseCase(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewGatewayHandler(mockGateway, 3, logger), mockGateway
}

func createTestContext(entityType string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/records/"+entityType+"/decrypt", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req.WithContext(authHTTP.WithActor(req.Context(), testActor))
	c.Params = gin.Params{{Key: "entity_type", Value: entityType}}
	return c, w
}

func TestGatewayHandler_EncryptHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockGateway := setupTestGatewayHandler(t)
		sealed := gatewayDomain.Record{"id": "c-1", "user_id": "clinic-a", "cpf": "fv1:AAEC"}

		mockGateway.On("EncryptAs", mock.Anything, testActor, "clients",
			gatewayDomain.Record{"id": "c-1", "cpf": "123"}).
			Return(sealed, nil).Once()

		c, w := createTestContext("clients", map[string]any{"record": map[string]any{"id": "c-1", "cpf": "123"}})
		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.RecordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "fv1:AAEC", resp.Record["cpf"])
	})

	t.Run("Error_TenantMismatch", func(t *testing.T) {
		handler, mockGateway := setupTestGatewayHandler(t)

		mockGateway.On("EncryptAs", mock.Anything, testActor, "clients", mock.Anything).
			Return(nil, authDomain.ErrTenantMismatch).Once()

		c, w := createTestContext("clients", map[string]any{"record": map[string]any{"user_id": "clinic-b"}})
		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_InvalidEntityType", func(t *testing.T) {
		handler, _ := setupTestGatewayHandler(t)

		c, w := createTestContext("Clients;", map[string]any{"record": map[string]any{"cpf": "1"}})
		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_MissingRecord", func(t *testing.T) {
		handler, _ := setupTestGatewayHandler(t)

		c, w := createTestContext("clients", map[string]any{})
		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestGatewayHandler_DecryptHandler(t *testing.T) {
	t.Run("Success_DefaultsToView", func(t *testing.T) {
		handler, mockGateway := setupTestGatewayHandler(t)

		mockGateway.On("DecryptByID", mock.Anything, testActor, auditDomain.ActionView, "clients", "c-1").
			Return(gatewayDomain.Record{"cpf": "123", "observacoes": nil}, auditDomain.OutcomeFailed, nil).Once()

		c, w := createTestContext("clients", map[string]any{"id": "c-1"})
		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"record":{"cpf":"123","observacoes":null},"outcome":"FAILED"}`, w.Body.String())
	})

	t.Run("Success_Export", func(t *testing.T) {
		handler, mockGateway := setupTestGatewayHandler(t)

		mockGateway.On("DecryptByID", mock.Anything, testActor, auditDomain.ActionExport, "clients", "c-1").
			Return(gatewayDomain.Record{}, auditDomain.OutcomeAllowed, nil).Once()

		c, w := createTestContext("clients", map[string]any{"id": "c-1", "action": "EXPORT"})
		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_SuppliedRecordIsIgnored", func(t *testing.T) {
		handler, mockGateway := setupTestGatewayHandler(t)

		mockGateway.On("DecryptByID", mock.Anything, testActor, auditDomain.ActionView, "clients", "c-9").
			Return(nil, auditDomain.OutcomeDenied, authDomain.ErrAccessDenied).Once()

		c, w := createTestContext("clients", map[string]any{
			"id":     "c-9",
			"record": map[string]any{"id": "c-9", "user_id": "clinic-a", "cpf": "fv1:AAEC"},
		})
		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NotContains(t, w.Body.String(), "record")
		mockGateway.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockGateway := setupTestGatewayHandler(t)

		mockGateway.On("DecryptByID", mock.Anything, testActor, auditDomain.ActionView, "clients", "c-404").
			Return(nil, auditDomain.OutcomeFailed, gatewayDomain.ErrRecordNotFound).Once()

		c, w := createTestContext("clients", map[string]any{"id": "c-404"})
		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_AuditUnavailable", func(t *testing.T) {
		handler, mockGateway := setupTestGatewayHandler(t)

		mockGateway.On("DecryptByID", mock.Anything, testActor, auditDomain.ActionView, "clients", "c-1").
			Return(nil, auditDomain.OutcomeAllowed, auditDomain.ErrAuditWriteFailure).Once()

		c, w := createTestContext("clients", map[string]any{"id": "c-1"})
		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("Error_MissingID", func(t *testing.T) {
		handler, _ := setupTestGatewayHandler(t)

		c, w := createTestContext("clients", map[string]any{"record": map[string]any{"id": "c-1"}})
		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_OversizedID", func(t *testing.T) {
		handler, _ := setupTestGatewayHandler(t)

		c, w := createTestContext("clients", map[string]any{"id": strings.Repeat("c", 256)})
		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_UnsupportedAction", func(t *testing.T) {
		handler, _ := setupTestGatewayHandler(t)

		c, w := createTestContext("clients", map[string]any{"id": "c-1", "action": "DELETE"})
		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestGatewayHandler_DecryptBatchHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockGateway := setupTestGatewayHandler(t)
		longID := strings.Repeat("c", 300)
		results := []gatewayDomain.Result{
			{Index: 0, Record: gatewayDomain.Record{"cpf": "1"}, Outcome: auditDomain.OutcomeAllowed},
			{Index: 1, Outcome: auditDomain.OutcomeDenied, Err: authDomain.ErrAccessDenied},
			{Index: 2, Outcome: auditDomain.OutcomeFailed, Err: gatewayDomain.ErrInvalidRecordID},
		}

		mockGateway.On("DecryptBatchByID", mock.Anything, testActor, auditDomain.ActionView, "clients",
			[]string{"c-1", "c-2", longID}).
			Return(results, nil).Once()

		c, w := createTestContext("clients", map[string]any{"ids": []string{"c-1", "c-2", longID}})
		handler.DecryptBatchHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.DecryptBatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 3)
		assert.Equal(t, "ALLOWED", resp.Results[0].Outcome)
		assert.Equal(t, "access_denied", resp.Results[1].Error)
		assert.Nil(t, resp.Results[1].Record)
		assert.Equal(t, "invalid_identifier", resp.Results[2].Error)
	})

	t.Run("Error_TooManyRecords", func(t *testing.T) {
		handler, _ := setupTestGatewayHandler(t)

		c, w := createTestContext("clients", map[string]any{"ids": []string{"1", "2", "3", "4"}})
		handler.DecryptBatchHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_MalformedJSON", func(t *testing.T) {
		handler, _ := setupTestGatewayHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/records/clients/decrypt-batch",
			bytes.NewReader([]byte("{")))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "entity_type", Value: "clients"}}

		handler.DecryptBatchHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
