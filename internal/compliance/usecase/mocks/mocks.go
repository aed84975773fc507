// Package mocks provides testify mocks for the compliance use case interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	complianceDomain "github.com/allisson/fieldvault/internal/compliance/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

func register(t *testing.T, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockClinicalDataRepository is a mock implementation of usecase.ClinicalDataRepository.
type MockClinicalDataRepository struct {
	mock.Mock
}

// NewMockClinicalDataRepository creates a MockClinicalDataRepository asserted on cleanup.
func NewMockClinicalDataRepository(t *testing.T) *MockClinicalDataRepository {
	m := &MockClinicalDataRepository{}
	register(t, &m.Mock)
	return m
}

// CountClientsWithClinicalData mocks the CountClientsWithClinicalData method.
func (m *MockClinicalDataRepository) CountClientsWithClinicalData(
	ctx context.Context,
	sources []registry.Entity,
	tenantID string,
) (int, error) {
	args := m.Called(ctx, sources, tenantID)
	return args.Int(0), args.Error(1)
}

// MockComplianceUseCase is a mock implementation of usecase.ComplianceUseCase.
type MockComplianceUseCase struct {
	mock.Mock
}

// NewMockComplianceUseCase creates a MockComplianceUseCase asserted on cleanup.
func NewMockComplianceUseCase(t *testing.T) *MockComplianceUseCase {
	m := &MockComplianceUseCase{}
	register(t, &m.Mock)
	return m
}

// SelfTest mocks the SelfTest method.
func (m *MockComplianceUseCase) SelfTest(ctx context.Context) complianceDomain.SelfTest {
	return m.Called(ctx).Get(0).(complianceDomain.SelfTest)
}

// Summary mocks the Summary method.
func (m *MockComplianceUseCase) Summary(ctx context.Context, tenantID string) (complianceDomain.Summary, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(complianceDomain.Summary), args.Error(1)
}

// Report mocks the Report method.
func (m *MockComplianceUseCase) Report(ctx context.Context, tenantID string) (*complianceDomain.Report, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*complianceDomain.Report), args.Error(1)
}

// ExportJSON mocks the ExportJSON method.
func (m *MockComplianceUseCase) ExportJSON(ctx context.Context, tenantID string) ([]byte, string, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}
