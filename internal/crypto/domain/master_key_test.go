package domain

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func encodedKey(b byte) string {
	return base64.StdEncoding.EncodeToString(rawKey(b))
}

// xorKeeper stands in for a KMS: "ciphertexts" are the key XORed with 0xFF.
type xorKeeper struct {
	fail bool
}

func (k *xorKeeper) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	for i, b := range plaintext {
		out[i] = b ^ 0xFF
	}
	return out, nil
}

func (k *xorKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if k.fail {
		return nil, errors.New("kms unreachable")
	}
	return k.Encrypt(ctx, ciphertext)
}

func (k *xorKeeper) Close() error { return nil }

func TestLoadMasterKeyChainFromEnv(t *testing.T) {
	tests := []struct {
		name        string
		masterKeys  string
		activeID    string
		expectedErr error
	}{
		{
			name:       "valid keys",
			masterKeys: "k1:" + encodedKey(1) + ", k2:" + encodedKey(2),
			activeID:   "k2",
		},
		{
			name:        "missing master keys",
			activeID:    "k1",
			expectedErr: ErrMasterKeysNotSet,
		},
		{
			name:        "missing active id",
			masterKeys:  "k1:" + encodedKey(1),
			expectedErr: ErrActiveMasterKeyIDNotSet,
		},
		{
			name:        "entry without separator",
			masterKeys:  "k1" + encodedKey(1),
			activeID:    "k1",
			expectedErr: ErrInvalidMasterKeysFormat,
		},
		{
			name:        "invalid base64",
			masterKeys:  "k1:!!!",
			activeID:    "k1",
			expectedErr: ErrInvalidMasterKeyBase64,
		},
		{
			name:        "short key",
			masterKeys:  "k1:" + base64.StdEncoding.EncodeToString([]byte("short")),
			activeID:    "k1",
			expectedErr: ErrInvalidKeySize,
		},
		{
			name:        "active key not configured",
			masterKeys:  "k1:" + encodedKey(1),
			activeID:    "k9",
			expectedErr: ErrActiveMasterKeyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MASTER_KEYS", tt.masterKeys)
			t.Setenv("ACTIVE_MASTER_KEY_ID", tt.activeID)

			mkc, err := LoadMasterKeyChainFromEnv()
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, mkc)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.activeID, mkc.ActiveMasterKeyID())

			active, ok := mkc.Active()
			require.True(t, ok)
			assert.Equal(t, rawKey(2), active.Key)

			old, ok := mkc.Get("k1")
			require.True(t, ok)
			assert.Equal(t, rawKey(1), old.Key)
		})
	}
}

func TestLoadMasterKeyChainFromKMS(t *testing.T) {
	keeper := &xorKeeper{}
	wrapped, err := keeper.Encrypt(context.Background(), rawKey(7))
	require.NoError(t, err)

	t.Setenv("MASTER_KEYS", "kms1:"+base64.StdEncoding.EncodeToString(wrapped))
	t.Setenv("ACTIVE_MASTER_KEY_ID", "kms1")

	t.Run("unwraps each entry", func(t *testing.T) {
		mkc, err := LoadMasterKeyChainFromKMS(context.Background(), keeper)
		require.NoError(t, err)

		mk, ok := mkc.Active()
		require.True(t, ok)
		assert.Equal(t, rawKey(7), mk.Key)
	})

	t.Run("kms failure", func(t *testing.T) {
		mkc, err := LoadMasterKeyChainFromKMS(context.Background(), &xorKeeper{fail: true})
		assert.Error(t, err)
		assert.Nil(t, mkc)
	})
}

func TestNewMasterKeyChain(t *testing.T) {
	src := rawKey(3)
	mkc, err := NewMasterKeyChain("a", &MasterKey{ID: "a", Key: src})
	require.NoError(t, err)

	Zero(src)
	mk, ok := mkc.Get("a")
	require.True(t, ok)
	assert.Equal(t, rawKey(3), mk.Key, "chain must own a copy of the key")

	_, err = NewMasterKeyChain("a", &MasterKey{ID: "a", Key: []byte("short")})
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = NewMasterKeyChain("b", &MasterKey{ID: "a", Key: rawKey(1)})
	assert.ErrorIs(t, err, ErrActiveMasterKeyNotFound)
}

func TestMasterKeyChain_Close(t *testing.T) {
	mkc, err := NewMasterKeyChain("a", &MasterKey{ID: "a", Key: rawKey(9)})
	require.NoError(t, err)
	mk, _ := mkc.Get("a")

	mkc.Close()

	assert.Equal(t, make([]byte, KeySize), mk.Key)
	assert.Empty(t, mkc.ActiveMasterKeyID())
	_, ok := mkc.Get("a")
	assert.False(t, ok)
}
