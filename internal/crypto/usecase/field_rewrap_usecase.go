package usecase

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/database"
	"github.com/allisson/fieldvault/internal/registry"
)

// DefaultRewrapBatchSize is used when RewrapFields is called with a non-positive size.
const DefaultRewrapBatchSize = 100

type fieldRewrapUseCase struct {
	txManager database.TxManager
	fieldRepo FieldRepository
	registry  *registry.Registry
	cipher    FieldCipher
}

type batchCounts struct {
	rewrapped, sealed, failed int
}

func (f *fieldRewrapUseCase) RewrapFields(
	ctx context.Context,
	entityType string,
	batchSize int,
) (*cryptoDomain.RewrapResult, error) {
	entity, ok := f.registry.Entity(entityType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrUnknownEntityType, entityType)
	}
	if batchSize <= 0 {
		batchSize = DefaultRewrapBatchSize
	}

	result := &cryptoDomain.RewrapResult{EntityType: entityType}
	active := f.cipher.ActiveKeyVersion()
	cursor := ""

	for {
		page, err := f.fieldRepo.ListPage(ctx, entity, cursor, batchSize)
		if err != nil {
			return result, err
		}
		if len(page) == 0 {
			break
		}

		var counts batchCounts
		err = f.txManager.WithTx(ctx, func(ctx context.Context) error {
			counts = batchCounts{}
			for _, row := range page {
				updates, err := f.reseal(row, active, &counts)
				if err != nil {
					return err
				}
				if len(updates) == 0 {
					continue
				}
				if err := f.fieldRepo.Update(ctx, entity, row.ID, updates); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return result, err
		}

		result.Scanned += len(page)
		result.Rewrapped += counts.rewrapped
		result.Sealed += counts.sealed
		result.Failed += counts.failed

		cursor = page[len(page)-1].ID
		if len(page) < batchSize {
			break
		}
	}

	return result, nil
}

// reseal returns the columns of row that must be rewritten.
func (f *fieldRewrapUseCase) reseal(
	row *cryptoDomain.SealedRow,
	active uint16,
	counts *batchCounts,
) (map[string]*string, error) {
	updates := make(map[string]*string)

	for field, value := range row.Fields {
		if value == nil || *value == "" {
			continue
		}

		plaintext := *value
		legacy := !cryptoDomain.IsEnvelope(*value)
		if !legacy {
			env, err := cryptoDomain.ParseEnvelope(*value)
			if err != nil {
				counts.failed++
				continue
			}
			if env.KeyVersion >= active {
				continue
			}
			plaintext, err = f.cipher.OpenString(*value)
			if err != nil {
				counts.failed++
				continue
			}
		}

		sealed, err := f.cipher.SealString(plaintext)
		if err != nil {
			return nil, err
		}
		updates[field] = &sealed

		if legacy {
			counts.sealed++
		} else {
			counts.rewrapped++
		}
	}

	return updates, nil
}

// NewFieldRewrapUseCase creates a new FieldRewrapUseCase.
func NewFieldRewrapUseCase(
	txManager database.TxManager,
	fieldRepo FieldRepository,
	reg *registry.Registry,
	cipher FieldCipher,
) FieldRewrapUseCase {
	return &fieldRewrapUseCase{
		txManager: txManager,
		fieldRepo: fieldRepo,
		registry:  reg,
		cipher:    cipher,
	}
}
