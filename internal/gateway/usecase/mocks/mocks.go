// Package mocks provides testify mocks for the gateway use case interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
)

// MockGatewayUseCase is a mock implementation of usecase.GatewayUseCase.
type MockGatewayUseCase struct {
	mock.Mock
}

// NewMockGatewayUseCase creates a MockGatewayUseCase asserted on cleanup.
func NewMockGatewayUseCase(t *testing.T) *MockGatewayUseCase {
	m := &MockGatewayUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func record(args mock.Arguments, i int) gatewayDomain.Record {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(gatewayDomain.Record)
}

// Encrypt mocks the Encrypt method.
func (m *MockGatewayUseCase) Encrypt(
	ctx context.Context,
	entityType string,
	r gatewayDomain.Record,
) (gatewayDomain.Record, error) {
	args := m.Called(ctx, entityType, r)
	return record(args, 0), args.Error(1)
}

// EncryptAs mocks the EncryptAs method.
func (m *MockGatewayUseCase) EncryptAs(
	ctx context.Context,
	actor *authDomain.Actor,
	entityType string,
	r gatewayDomain.Record,
) (gatewayDomain.Record, error) {
	args := m.Called(ctx, actor, entityType, r)
	return record(args, 0), args.Error(1)
}

// Decrypt mocks the Decrypt method.
func (m *MockGatewayUseCase) Decrypt(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	r gatewayDomain.Record,
) (gatewayDomain.Record, auditDomain.Outcome, error) {
	args := m.Called(ctx, actor, action, entityType, r)
	return record(args, 0), args.Get(1).(auditDomain.Outcome), args.Error(2)
}

// DecryptBatch mocks the DecryptBatch method.
func (m *MockGatewayUseCase) DecryptBatch(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	records []gatewayDomain.Record,
) ([]gatewayDomain.Result, error) {
	args := m.Called(ctx, actor, action, entityType, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gatewayDomain.Result), args.Error(1)
}

// DecryptByID mocks the DecryptByID method.
func (m *MockGatewayUseCase) DecryptByID(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	id string,
) (gatewayDomain.Record, auditDomain.Outcome, error) {
	args := m.Called(ctx, actor, action, entityType, id)
	return record(args, 0), args.Get(1).(auditDomain.Outcome), args.Error(2)
}

// DecryptBatchByID mocks the DecryptBatchByID method.
func (m *MockGatewayUseCase) DecryptBatchByID(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	entityType string,
	ids []string,
) ([]gatewayDomain.Result, error) {
	args := m.Called(ctx, actor, action, entityType, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gatewayDomain.Result), args.Error(1)
}

// EncryptValue mocks the EncryptValue method.
func (m *MockGatewayUseCase) EncryptValue(ctx context.Context, value gatewayDomain.Sealable) error {
	return m.Called(ctx, value).Error(0)
}

// DecryptValue mocks the DecryptValue method.
func (m *MockGatewayUseCase) DecryptValue(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	value gatewayDomain.Sealable,
) (auditDomain.Outcome, error) {
	args := m.Called(ctx, actor, action, value)
	return args.Get(0).(auditDomain.Outcome), args.Error(1)
}
