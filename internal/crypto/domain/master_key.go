package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MasterKey wraps the data keys stored in the encryption_keys table. Master keys are
// never persisted by the application.
type MasterKey struct {
	ID  string
	Key []byte
}

// KMSKeeper decrypts master keys that are themselves wrapped by a KMS.
// *gocloud.dev/secrets.Keeper satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// MasterKeyChain holds every configured master key with one designated as active.
//
// Old master keys stay loaded so data keys wrapped before a master key rotation can
// still be unwrapped; new data keys are always wrapped with the active one.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// NewMasterKeyChain builds a chain from already decoded keys. Key bytes are copied.
func NewMasterKeyChain(activeID string, keys ...*MasterKey) (*MasterKeyChain, error) {
	mkc := &MasterKeyChain{activeID: activeID}
	for _, mk := range keys {
		if len(mk.Key) != KeySize {
			mkc.Close()
			return nil, fmt.Errorf("%w: master key %s must be %d bytes, got %d",
				ErrInvalidKeySize, mk.ID, KeySize, len(mk.Key))
		}
		mkc.store(mk.ID, mk.Key)
	}
	if _, ok := mkc.Get(activeID); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, activeID)
	}
	return mkc, nil
}

// ActiveMasterKeyID returns the ID of the master key used to wrap new data keys.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Active returns the active master key.
func (m *MasterKeyChain) Active() (*MasterKey, bool) {
	return m.Get(m.activeID)
}

// Get retrieves a master key by ID.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}

	return nil, false
}

// Close zeroes every master key and empties the chain.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(_, value any) bool {
		if mk, ok := value.(*MasterKey); ok {
			Zero(mk.Key)
		}
		return true
	})
	m.activeID = ""
	m.keys.Clear()
}

func (m *MasterKeyChain) store(id string, key []byte) {
	owned := make([]byte, len(key))
	copy(owned, key)
	m.keys.Store(id, &MasterKey{ID: id, Key: owned})
}

// LoadMasterKeyChainFromEnv loads master keys from MASTER_KEYS and ACTIVE_MASTER_KEY_ID.
//
// MASTER_KEYS is a comma separated list of "id:base64key" entries, each decoding to
// exactly 32 bytes:
//
//	MASTER_KEYS="2025-01:YWJj...,2026-01:MTIz..."
//	ACTIVE_MASTER_KEY_ID="2026-01"
//
// Decoded bytes are zeroed once copied into the chain; on any error the partially
// built chain is closed.
func LoadMasterKeyChainFromEnv() (*MasterKeyChain, error) {
	return loadMasterKeyChain(context.Background(), nil)
}

// LoadMasterKeyChainFromKMS is LoadMasterKeyChainFromEnv for deployments where each
// MASTER_KEYS entry is a base64 KMS ciphertext rather than the raw key.
func LoadMasterKeyChainFromKMS(ctx context.Context, keeper KMSKeeper) (*MasterKeyChain, error) {
	return loadMasterKeyChain(ctx, keeper)
}

func loadMasterKeyChain(ctx context.Context, keeper KMSKeeper) (*MasterKeyChain, error) {
	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	mkc := &MasterKeyChain{activeID: active}

	for part := range strings.SplitSeq(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 || p[0] == "" {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]
		key, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}

		if keeper != nil {
			wrapped := key
			key, err = keeper.Decrypt(ctx, wrapped)
			if err != nil {
				mkc.Close()
				return nil, fmt.Errorf("failed to decrypt master key %s with KMS: %w", id, err)
			}
		}

		if len(key) != KeySize {
			Zero(key)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be %d bytes, got %d",
				ErrInvalidKeySize,
				id,
				KeySize,
				len(key),
			)
		}
		mkc.store(id, key)
		Zero(key)
	}

	if _, ok := mkc.Get(active); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, active)
	}

	return mkc, nil
}
