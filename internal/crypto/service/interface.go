// Package service implements the field encryption engine and the AEAD primitives and
// key wrapping it is built on.
package service

import (
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext (tag appended) and
	// a freshly generated nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyManager generates data keys and wraps them under master keys.
type KeyManager interface {
	// CreateDataKey generates a random data key for version and wraps it with masterKey.
	CreateDataKey(
		masterKey *cryptoDomain.MasterKey,
		alg cryptoDomain.Algorithm,
		version uint16,
	) (cryptoDomain.DataKey, error)

	// DecryptDataKey unwraps a stored data key with the master key that wrapped it.
	DecryptDataKey(key *cryptoDomain.DataKey, masterKey *cryptoDomain.MasterKey) ([]byte, error)

	// RewrapDataKey re-wraps an unwrapped data key under another master key, keeping its
	// version and algorithm.
	RewrapDataKey(key *cryptoDomain.DataKey, masterKey *cryptoDomain.MasterKey) (cryptoDomain.DataKey, error)
}
