package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

func newMasterKey(t *testing.T, id string) *cryptoDomain.MasterKey {
	t.Helper()
	return &cryptoDomain.MasterKey{ID: id, Key: randomKey(t)}
}

func TestNewKeyManager(t *testing.T) {
	km := NewKeyManager(NewAEADManager())
	assert.NotNil(t, km)
	assert.NotNil(t, km.aeadManager)
}

func TestKeyManagerService_CreateDataKey(t *testing.T) {
	km := NewKeyManager(NewAEADManager())
	masterKey := newMasterKey(t, "master-1")

	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			key, err := km.CreateDataKey(masterKey, alg, 3)
			require.NoError(t, err)

			assert.NotEqual(t, "", key.ID.String())
			assert.Equal(t, uint16(3), key.Version)
			assert.Equal(t, alg, key.Algorithm)
			assert.Equal(t, "master-1", key.MasterKeyID)
			assert.Len(t, key.Key, cryptoDomain.KeySize)
			assert.Len(t, key.Nonce, cryptoDomain.NonceSize)
			assert.Len(t, key.EncryptedKey, cryptoDomain.KeySize+cryptoDomain.TagSize)
			assert.NotEqual(t, key.Key, key.EncryptedKey[:cryptoDomain.KeySize])
			assert.False(t, key.CreatedAt.IsZero())
		})
	}

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := km.CreateDataKey(masterKey, cryptoDomain.Algorithm("rot13"), 1)
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})

	t.Run("invalid master key", func(t *testing.T) {
		_, err := km.CreateDataKey(&cryptoDomain.MasterKey{ID: "short", Key: []byte("short")}, cryptoDomain.AESGCM, 1)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})

	t.Run("unique keys", func(t *testing.T) {
		a, err := km.CreateDataKey(masterKey, cryptoDomain.AESGCM, 1)
		require.NoError(t, err)
		b, err := km.CreateDataKey(masterKey, cryptoDomain.AESGCM, 1)
		require.NoError(t, err)
		assert.NotEqual(t, a.Key, b.Key)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestKeyManagerService_DecryptDataKey(t *testing.T) {
	km := NewKeyManager(NewAEADManager())
	masterKey := newMasterKey(t, "master-1")

	key, err := km.CreateDataKey(masterKey, cryptoDomain.ChaCha20, 1)
	require.NoError(t, err)

	t.Run("unwraps with the same master key", func(t *testing.T) {
		plaintext, err := km.DecryptDataKey(&key, masterKey)
		require.NoError(t, err)
		assert.Equal(t, key.Key, plaintext)
	})

	t.Run("wrong master key", func(t *testing.T) {
		_, err := km.DecryptDataKey(&key, newMasterKey(t, "master-2"))
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("tampered wrapped key", func(t *testing.T) {
		tampered := key
		tampered.EncryptedKey = append([]byte(nil), key.EncryptedKey...)
		tampered.EncryptedKey[0] ^= 0xff

		_, err := km.DecryptDataKey(&tampered, masterKey)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}

func TestKeyManagerService_RewrapDataKey(t *testing.T) {
	km := NewKeyManager(NewAEADManager())
	oldMaster := newMasterKey(t, "master-1")
	newMaster := newMasterKey(t, "master-2")

	key, err := km.CreateDataKey(oldMaster, cryptoDomain.AESGCM, 4)
	require.NoError(t, err)

	rewrapped, err := km.RewrapDataKey(&key, newMaster)
	require.NoError(t, err)

	assert.Equal(t, key.ID, rewrapped.ID)
	assert.Equal(t, key.Version, rewrapped.Version)
	assert.Equal(t, key.Algorithm, rewrapped.Algorithm)
	assert.Equal(t, "master-2", rewrapped.MasterKeyID)
	assert.NotEqual(t, key.EncryptedKey, rewrapped.EncryptedKey)

	plaintext, err := km.DecryptDataKey(&rewrapped, newMaster)
	require.NoError(t, err)
	assert.Equal(t, key.Key, plaintext)

	_, err = km.DecryptDataKey(&rewrapped, oldMaster)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)

	t.Run("requires unwrapped key", func(t *testing.T) {
		_, err := km.RewrapDataKey(&cryptoDomain.DataKey{Version: 1}, newMaster)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})
}
