// Package domain defines the field encryption key hierarchy and the ciphertext envelope.
//
// Master keys (from the environment, optionally KMS wrapped) wrap versioned data keys
// stored in encryption_keys. Data keys seal individual field values into envelopes
// that carry the key version, so any version ever written stays readable.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DataKey is one version of the field encryption key.
type DataKey struct {
	ID           uuid.UUID // UUIDv7
	Version      uint16    // 1-based, strictly increasing
	Algorithm    Algorithm // AEAD used for envelopes sealed under this version
	MasterKeyID  string    // master key that wraps EncryptedKey
	EncryptedKey []byte    // data key wrapped by the master key
	Nonce        []byte    // nonce used to wrap the data key
	Key          []byte    // plaintext key, populated after unwrap, never persisted
	CreatedAt    time.Time
}
