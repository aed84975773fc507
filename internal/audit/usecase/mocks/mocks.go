// Package mocks provides testify mocks for the audit use case interfaces.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

func register(t *testing.T, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockAuditLogRepository is a mock implementation of usecase.AuditLogRepository.
type MockAuditLogRepository struct {
	mock.Mock
}

// NewMockAuditLogRepository creates a MockAuditLogRepository asserted on cleanup.
func NewMockAuditLogRepository(t *testing.T) *MockAuditLogRepository {
	m := &MockAuditLogRepository{}
	register(t, &m.Mock)
	return m
}

// Create mocks the Create method.
func (m *MockAuditLogRepository) Create(ctx context.Context, entry *auditDomain.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

// CreateBatch mocks the CreateBatch method.
func (m *MockAuditLogRepository) CreateBatch(ctx context.Context, entries []*auditDomain.AuditLog) error {
	return m.Called(ctx, entries).Error(0)
}

// List mocks the List method.
func (m *MockAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter auditDomain.Filter,
) ([]*auditDomain.AuditLog, error) {
	args := m.Called(ctx, offset, limit, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditLog), args.Error(1)
}

// Stats mocks the Stats method.
func (m *MockAuditLogRepository) Stats(
	ctx context.Context,
	tenantID string,
	since, recentSince time.Time,
) (*auditDomain.Stats, error) {
	args := m.Called(ctx, tenantID, since, recentSince)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Stats), args.Error(1)
}

// MockAuditLogUseCase is a mock implementation of usecase.AuditLogUseCase.
type MockAuditLogUseCase struct {
	mock.Mock
}

// NewMockAuditLogUseCase creates a MockAuditLogUseCase asserted on cleanup.
func NewMockAuditLogUseCase(t *testing.T) *MockAuditLogUseCase {
	m := &MockAuditLogUseCase{}
	register(t, &m.Mock)
	return m
}

// Log mocks the Log method.
func (m *MockAuditLogUseCase) Log(ctx context.Context, entry *auditDomain.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

// LogBatch mocks the LogBatch method.
func (m *MockAuditLogUseCase) LogBatch(ctx context.Context, entries []*auditDomain.AuditLog) error {
	return m.Called(ctx, entries).Error(0)
}

// List mocks the List method.
func (m *MockAuditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	filter auditDomain.Filter,
) ([]*auditDomain.AuditLog, error) {
	args := m.Called(ctx, offset, limit, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditLog), args.Error(1)
}

// Stats mocks the Stats method.
func (m *MockAuditLogUseCase) Stats(
	ctx context.Context,
	tenantID string,
	since time.Time,
) (*auditDomain.Stats, error) {
	args := m.Called(ctx, tenantID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Stats), args.Error(1)
}

// VerifyBatch mocks the VerifyBatch method.
func (m *MockAuditLogUseCase) VerifyBatch(
	ctx context.Context,
	from, to *time.Time,
) (*auditDomain.VerificationReport, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.VerificationReport), args.Error(1)
}
