package service

import (
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// Engine seals and opens field values with the versioned keyset.
//
// The engine holds no mutable state besides a cache of AEAD instances per key
// version and is safe for concurrent use. Sealing always uses the active key version;
// opening selects the key named by the envelope, so rotation never breaks reads of
// older envelopes.
type Engine struct {
	keyset      *cryptoDomain.Keyset
	aeadManager AEADManager
	ciphers     sync.Map // uint16 -> AEAD
}

// NewEngine creates an engine over keyset. It refuses to start without an active key.
func NewEngine(keyset *cryptoDomain.Keyset, aeadManager AEADManager) (*Engine, error) {
	if keyset == nil || keyset.ActiveVersion() == 0 {
		return nil, cryptoDomain.ErrKeyUnavailable
	}
	return &Engine{keyset: keyset, aeadManager: aeadManager}, nil
}

func (e *Engine) cipherFor(version uint16) (AEAD, error) {
	if cached, ok := e.ciphers.Load(version); ok {
		return cached.(AEAD), nil
	}

	key, ok := e.keyset.Get(version)
	if !ok {
		return nil, fmt.Errorf("key version %d not loaded", version)
	}
	aead, err := e.aeadManager.CreateCipher(key.Key, key.Algorithm)
	if err != nil {
		return nil, err
	}

	actual, _ := e.ciphers.LoadOrStore(version, aead)
	return actual.(AEAD), nil
}

// Seal encrypts plaintext under the active key with a fresh nonce and no AAD.
func (e *Engine) Seal(plaintext []byte) (cryptoDomain.Envelope, error) {
	version := e.keyset.ActiveVersion()
	if version == 0 {
		return cryptoDomain.Envelope{}, cryptoDomain.ErrKeyUnavailable
	}

	aead, err := e.cipherFor(version)
	if err != nil {
		return cryptoDomain.Envelope{}, fmt.Errorf("%w: %v", cryptoDomain.ErrKeyUnavailable, err)
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return cryptoDomain.Envelope{}, fmt.Errorf("failed to seal value: %w", err)
	}

	return cryptoDomain.Envelope{KeyVersion: version, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Open decrypts an envelope. Unknown versions, wrong keys, corruption and tag
// mismatches all return ErrDecryptionFailed.
func (e *Engine) Open(env cryptoDomain.Envelope) ([]byte, error) {
	aead, err := e.cipherFor(env.KeyVersion)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	plaintext, err := aead.Decrypt(env.Ciphertext, env.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// SealString seals s and returns the serialized envelope.
func (e *Engine) SealString(s string) (string, error) {
	env, err := e.Seal([]byte(s))
	if err != nil {
		return "", err
	}
	return env.String(), nil
}

// OpenString parses and opens a serialized envelope.
func (e *Engine) OpenString(s string) (string, error) {
	env, err := cryptoDomain.ParseEnvelope(s)
	if err != nil {
		return "", err
	}
	plaintext, err := e.Open(env)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// ActiveKeyVersion returns the key version used by Seal.
func (e *Engine) ActiveKeyVersion() uint16 {
	return e.keyset.ActiveVersion()
}

// Algorithm returns the algorithm of the active key.
func (e *Engine) Algorithm() cryptoDomain.Algorithm {
	key, ok := e.keyset.Active()
	if !ok {
		return ""
	}
	return key.Algorithm
}

// AddKey makes a freshly rotated key version available without a restart.
func (e *Engine) AddKey(key *cryptoDomain.DataKey) error {
	return e.keyset.Add(key)
}

// Merge adds the versions of keyset newer than the active one and returns them in
// ascending order. Every key of keyset the engine does not take over is zeroed, on the
// error path too.
func (e *Engine) Merge(keyset *cryptoDomain.Keyset) ([]uint16, error) {
	active := e.ActiveKeyVersion()
	versions := keyset.Versions()

	var added []uint16
	for i, version := range versions {
		key, _ := keyset.Get(version)
		if version <= active {
			cryptoDomain.Zero(key.Key)
			continue
		}
		if err := e.AddKey(key); err != nil {
			for _, rest := range versions[i:] {
				if k, ok := keyset.Get(rest); ok {
					cryptoDomain.Zero(k.Key)
				}
			}
			return added, fmt.Errorf("failed to add key version %d: %w", version, err)
		}
		added = append(added, version)
	}
	return added, nil
}

// Close zeroes every plaintext key. The engine cannot be used afterwards.
func (e *Engine) Close() {
	e.keyset.Close()
	e.ciphers.Clear()
}

// DeriveKey derives a 32-byte purpose-bound subkey from the data key of version using
// HKDF-SHA256. The data key itself never leaves the engine.
func (e *Engine) DeriveKey(version uint16, info string) ([]byte, error) {
	key, ok := e.keyset.Get(version)
	if !ok {
		return nil, fmt.Errorf("%w: key version %d not loaded", cryptoDomain.ErrKeyUnavailable, version)
	}

	derived := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key.Key, nil, []byte(info)), derived); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return derived, nil
}
