package service

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// KeyManagerService generates data keys and wraps them under master keys. Master keys
// always wrap with AES-256-GCM; the data key's own algorithm only governs envelopes.
type KeyManagerService struct {
	aeadManager AEADManager
}

// NewKeyManager creates a new KeyManagerService.
func NewKeyManager(aeadManager AEADManager) *KeyManagerService {
	return &KeyManagerService{
		aeadManager: aeadManager,
	}
}

// CreateDataKey generates a random 32-byte data key and wraps it with masterKey. The
// returned DataKey carries the plaintext in Key; callers zero it when done.
func (km *KeyManagerService) CreateDataKey(
	masterKey *cryptoDomain.MasterKey,
	alg cryptoDomain.Algorithm,
	version uint16,
) (cryptoDomain.DataKey, error) {
	if _, err := cryptoDomain.ParseAlgorithm(string(alg)); err != nil {
		return cryptoDomain.DataKey{}, err
	}

	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return cryptoDomain.DataKey{}, fmt.Errorf("failed to generate data key: %w", err)
	}

	dataKey := cryptoDomain.DataKey{
		ID:        uuid.Must(uuid.NewV7()),
		Version:   version,
		Algorithm: alg,
		Key:       key,
		CreatedAt: time.Now().UTC(),
	}

	wrapped, err := km.wrap(&dataKey, masterKey)
	if err != nil {
		cryptoDomain.Zero(key)
		return cryptoDomain.DataKey{}, err
	}
	return wrapped, nil
}

// DecryptDataKey unwraps key.EncryptedKey with masterKey.
func (km *KeyManagerService) DecryptDataKey(
	key *cryptoDomain.DataKey,
	masterKey *cryptoDomain.MasterKey,
) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(masterKey.Key, cryptoDomain.AESGCM)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(key.EncryptedKey, key.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// RewrapDataKey wraps an already unwrapped data key under masterKey.
func (km *KeyManagerService) RewrapDataKey(
	key *cryptoDomain.DataKey,
	masterKey *cryptoDomain.MasterKey,
) (cryptoDomain.DataKey, error) {
	if len(key.Key) != cryptoDomain.KeySize {
		return cryptoDomain.DataKey{}, cryptoDomain.ErrInvalidKeySize
	}
	return km.wrap(key, masterKey)
}

func (km *KeyManagerService) wrap(
	key *cryptoDomain.DataKey,
	masterKey *cryptoDomain.MasterKey,
) (cryptoDomain.DataKey, error) {
	aead, err := km.aeadManager.CreateCipher(masterKey.Key, cryptoDomain.AESGCM)
	if err != nil {
		return cryptoDomain.DataKey{}, err
	}

	encryptedKey, nonce, err := aead.Encrypt(key.Key, nil)
	if err != nil {
		return cryptoDomain.DataKey{}, fmt.Errorf("failed to wrap data key: %w", err)
	}

	wrapped := *key
	wrapped.MasterKeyID = masterKey.ID
	wrapped.EncryptedKey = encryptedKey
	wrapped.Nonce = nonce
	return wrapped, nil
}
