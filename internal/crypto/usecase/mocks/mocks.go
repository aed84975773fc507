// Package mocks provides testify mocks for the crypto use case interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

func register(t *testing.T, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockKeyRepository is a mock implementation of usecase.KeyRepository.
type MockKeyRepository struct {
	mock.Mock
}

// NewMockKeyRepository creates a MockKeyRepository asserted on cleanup.
func NewMockKeyRepository(t *testing.T) *MockKeyRepository {
	m := &MockKeyRepository{}
	register(t, &m.Mock)
	return m
}

// Create mocks the Create method.
func (m *MockKeyRepository) Create(ctx context.Context, key *cryptoDomain.DataKey) error {
	return m.Called(ctx, key).Error(0)
}

// Update mocks the Update method.
func (m *MockKeyRepository) Update(ctx context.Context, key *cryptoDomain.DataKey) error {
	return m.Called(ctx, key).Error(0)
}

// List mocks the List method.
func (m *MockKeyRepository) List(ctx context.Context) ([]*cryptoDomain.DataKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.DataKey), args.Error(1)
}

// MockFieldRepository is a mock implementation of usecase.FieldRepository.
type MockFieldRepository struct {
	mock.Mock
}

// NewMockFieldRepository creates a MockFieldRepository asserted on cleanup.
func NewMockFieldRepository(t *testing.T) *MockFieldRepository {
	m := &MockFieldRepository{}
	register(t, &m.Mock)
	return m
}

// ListPage mocks the ListPage method.
func (m *MockFieldRepository) ListPage(
	ctx context.Context,
	entity registry.Entity,
	cursor string,
	limit int,
) ([]*cryptoDomain.SealedRow, error) {
	args := m.Called(ctx, entity, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.SealedRow), args.Error(1)
}

// Update mocks the Update method.
func (m *MockFieldRepository) Update(
	ctx context.Context,
	entity registry.Entity,
	id string,
	values map[string]*string,
) error {
	return m.Called(ctx, entity, id, values).Error(0)
}

// MockKeyUseCase is a mock implementation of usecase.KeyUseCase.
type MockKeyUseCase struct {
	mock.Mock
}

// NewMockKeyUseCase creates a MockKeyUseCase asserted on cleanup.
func NewMockKeyUseCase(t *testing.T) *MockKeyUseCase {
	m := &MockKeyUseCase{}
	register(t, &m.Mock)
	return m
}

func (m *MockKeyUseCase) key(args mock.Arguments) (*cryptoDomain.DataKey, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.DataKey), args.Error(1)
}

// Create mocks the Create method.
func (m *MockKeyUseCase) Create(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.DataKey, error) {
	return m.key(m.Called(ctx, masterKeyChain, alg))
}

// Rotate mocks the Rotate method.
func (m *MockKeyUseCase) Rotate(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.DataKey, error) {
	return m.key(m.Called(ctx, masterKeyChain, alg))
}

// Unwrap mocks the Unwrap method.
func (m *MockKeyUseCase) Unwrap(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) (*cryptoDomain.Keyset, error) {
	args := m.Called(ctx, masterKeyChain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Keyset), args.Error(1)
}

// RewrapMasterKey mocks the RewrapMasterKey method.
func (m *MockKeyUseCase) RewrapMasterKey(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) (int, error) {
	args := m.Called(ctx, masterKeyChain)
	return args.Int(0), args.Error(1)
}

// List mocks the List method.
func (m *MockKeyUseCase) List(ctx context.Context) ([]*cryptoDomain.DataKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.DataKey), args.Error(1)
}

// MockFieldRewrapUseCase is a mock implementation of usecase.FieldRewrapUseCase.
type MockFieldRewrapUseCase struct {
	mock.Mock
}

// NewMockFieldRewrapUseCase creates a MockFieldRewrapUseCase asserted on cleanup.
func NewMockFieldRewrapUseCase(t *testing.T) *MockFieldRewrapUseCase {
	m := &MockFieldRewrapUseCase{}
	register(t, &m.Mock)
	return m
}

// RewrapFields mocks the RewrapFields method.
func (m *MockFieldRewrapUseCase) RewrapFields(
	ctx context.Context,
	entityType string,
	batchSize int,
) (*cryptoDomain.RewrapResult, error) {
	args := m.Called(ctx, entityType, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.RewrapResult), args.Error(1)
}
