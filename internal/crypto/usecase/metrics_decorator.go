package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/metrics"
)

// keyUseCaseWithMetrics decorates KeyUseCase with metrics instrumentation.
type keyUseCaseWithMetrics struct {
	next    KeyUseCase
	metrics metrics.BusinessMetrics
}

// NewKeyUseCaseWithMetrics wraps a KeyUseCase with metrics recording.
func NewKeyUseCaseWithMetrics(useCase KeyUseCase, m metrics.BusinessMetrics) KeyUseCase {
	return &keyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (k *keyUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	k.metrics.RecordOperation(ctx, "crypto", operation, status)
	k.metrics.RecordDuration(ctx, "crypto", operation, time.Since(start), status)
}

// Create records metrics for key creation.
func (k *keyUseCaseWithMetrics) Create(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.DataKey, error) {
	start := time.Now()
	key, err := k.next.Create(ctx, masterKeyChain, alg)
	k.record(ctx, "create_key", start, err)
	return key, err
}

// Rotate records metrics for key rotation.
func (k *keyUseCaseWithMetrics) Rotate(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.DataKey, error) {
	start := time.Now()
	key, err := k.next.Rotate(ctx, masterKeyChain, alg)
	k.record(ctx, "rotate_key", start, err)
	return key, err
}

// Unwrap records metrics for keyset unwrapping.
func (k *keyUseCaseWithMetrics) Unwrap(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) (*cryptoDomain.Keyset, error) {
	start := time.Now()
	keyset, err := k.next.Unwrap(ctx, masterKeyChain)
	k.record(ctx, "unwrap_keys", start, err)
	return keyset, err
}

// RewrapMasterKey records metrics for master key rewraps.
func (k *keyUseCaseWithMetrics) RewrapMasterKey(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) (int, error) {
	start := time.Now()
	n, err := k.next.RewrapMasterKey(ctx, masterKeyChain)
	k.record(ctx, "rewrap_master_key", start, err)
	return n, err
}

// List is not instrumented.
func (k *keyUseCaseWithMetrics) List(ctx context.Context) ([]*cryptoDomain.DataKey, error) {
	return k.next.List(ctx)
}

// fieldRewrapUseCaseWithMetrics decorates FieldRewrapUseCase with metrics instrumentation.
type fieldRewrapUseCaseWithMetrics struct {
	next    FieldRewrapUseCase
	metrics metrics.BusinessMetrics
}

// NewFieldRewrapUseCaseWithMetrics wraps a FieldRewrapUseCase with metrics recording.
func NewFieldRewrapUseCaseWithMetrics(useCase FieldRewrapUseCase, m metrics.BusinessMetrics) FieldRewrapUseCase {
	return &fieldRewrapUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// RewrapFields records metrics for envelope re-sealing.
func (f *fieldRewrapUseCaseWithMetrics) RewrapFields(
	ctx context.Context,
	entityType string,
	batchSize int,
) (*cryptoDomain.RewrapResult, error) {
	start := time.Now()
	result, err := f.next.RewrapFields(ctx, entityType, batchSize)

	status := "success"
	if err != nil {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "crypto", "rewrap_fields", status)
	f.metrics.RecordDuration(ctx, "crypto", "rewrap_fields", time.Since(start), status)

	return result, err
}
