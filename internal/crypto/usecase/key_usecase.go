package usecase

import (
	"context"
	"fmt"
	"math"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	"github.com/allisson/fieldvault/internal/database"
)

type keyUseCase struct {
	txManager  database.TxManager
	keyRepo    KeyRepository
	keyManager cryptoService.KeyManager
}

func (k *keyUseCase) getMasterKey(
	masterKeyChain *cryptoDomain.MasterKeyChain, id string,
) (*cryptoDomain.MasterKey, error) {
	masterKey, ok := masterKeyChain.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cryptoDomain.ErrMasterKeyNotFound, id)
	}
	return masterKey, nil
}

// store wraps a fresh data key for version and persists it. The returned key carries
// metadata only.
func (k *keyUseCase) store(
	ctx context.Context,
	masterKey *cryptoDomain.MasterKey,
	alg cryptoDomain.Algorithm,
	version uint16,
) (*cryptoDomain.DataKey, error) {
	key, err := k.keyManager.CreateDataKey(masterKey, alg, version)
	if err != nil {
		return nil, err
	}
	cryptoDomain.Zero(key.Key)
	key.Key = nil

	if err := k.keyRepo.Create(ctx, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

func (k *keyUseCase) Create(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.DataKey, error) {
	masterKey, err := k.getMasterKey(masterKeyChain, masterKeyChain.ActiveMasterKeyID())
	if err != nil {
		return nil, err
	}

	keys, err := k.keyRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		return nil, fmt.Errorf("%w: key version %d already exists, rotate instead",
			cryptoDomain.ErrKeyVersionConflict, keys[0].Version)
	}

	return k.store(ctx, masterKey, alg, 1)
}

func (k *keyUseCase) Rotate(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.DataKey, error) {
	masterKey, err := k.getMasterKey(masterKeyChain, masterKeyChain.ActiveMasterKeyID())
	if err != nil {
		return nil, err
	}

	var rotated *cryptoDomain.DataKey
	err = k.txManager.WithTx(ctx, func(ctx context.Context) error {
		keys, err := k.keyRepo.List(ctx)
		if err != nil {
			return err
		}

		version := uint16(1)
		if len(keys) > 0 {
			if keys[0].Version == math.MaxUint16 {
				return fmt.Errorf("%w: key version space exhausted", cryptoDomain.ErrKeyVersionConflict)
			}
			version = keys[0].Version + 1
		}

		rotated, err = k.store(ctx, masterKey, alg, version)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rotated, nil
}

func (k *keyUseCase) Unwrap(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) (*cryptoDomain.Keyset, error) {
	keys, err := k.keyRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, cryptoDomain.ErrKeyUnavailable
	}

	for _, key := range keys {
		masterKey, err := k.getMasterKey(masterKeyChain, key.MasterKeyID)
		if err != nil {
			zeroKeys(keys)
			return nil, err
		}
		plaintext, err := k.keyManager.DecryptDataKey(key, masterKey)
		if err != nil {
			zeroKeys(keys)
			return nil, fmt.Errorf("failed to unwrap key version %d: %w", key.Version, err)
		}
		key.Key = plaintext
	}

	return cryptoDomain.NewKeyset(keys)
}

func (k *keyUseCase) RewrapMasterKey(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) (int, error) {
	active, err := k.getMasterKey(masterKeyChain, masterKeyChain.ActiveMasterKeyID())
	if err != nil {
		return 0, err
	}

	var rewrapped int
	err = k.txManager.WithTx(ctx, func(ctx context.Context) error {
		rewrapped = 0

		keys, err := k.keyRepo.List(ctx)
		if err != nil {
			return err
		}

		for _, key := range keys {
			if key.MasterKeyID == active.ID {
				continue
			}

			oldMaster, err := k.getMasterKey(masterKeyChain, key.MasterKeyID)
			if err != nil {
				return err
			}
			plaintext, err := k.keyManager.DecryptDataKey(key, oldMaster)
			if err != nil {
				return fmt.Errorf("failed to unwrap key version %d: %w", key.Version, err)
			}
			key.Key = plaintext

			updated, err := k.keyManager.RewrapDataKey(key, active)
			cryptoDomain.Zero(plaintext)
			key.Key = nil
			if err != nil {
				return err
			}
			updated.Key = nil

			if err := k.keyRepo.Update(ctx, &updated); err != nil {
				return err
			}
			rewrapped++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rewrapped, nil
}

func (k *keyUseCase) List(ctx context.Context) ([]*cryptoDomain.DataKey, error) {
	return k.keyRepo.List(ctx)
}

func zeroKeys(keys []*cryptoDomain.DataKey) {
	for _, key := range keys {
		cryptoDomain.Zero(key.Key)
		key.Key = nil
	}
}

// NewKeyUseCase creates a new KeyUseCase.
func NewKeyUseCase(
	txManager database.TxManager,
	keyRepo KeyRepository,
	keyManager cryptoService.KeyManager,
) KeyUseCase {
	return &keyUseCase{
		txManager:  txManager,
		keyRepo:    keyRepo,
		keyManager: keyManager,
	}
}
