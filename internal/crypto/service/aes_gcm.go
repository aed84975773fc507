package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// sealer is the nonce handling shared by both ciphers: a random 12-byte nonce per
// Encrypt and the tag appended to the ciphertext. It is safe for concurrent use.
type sealer struct {
	aead cipher.AEAD
}

func (s sealer) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}

// Decrypt returns nothing unless the tag verifies. A nonce of the wrong length is
// rejected up front since Open panics on it.
func (s sealer) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != s.aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", cryptoDomain.ErrDecryptionFailed, s.aead.NonceSize())
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// AESGCMCipher is AES-256-GCM, the default algorithm for data keys and the only one
// used to wrap data keys under master keys.
type AESGCMCipher struct {
	sealer
}

// NewAESGCM creates an AES-256-GCM cipher from a 32-byte key.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("%w: AES-256 needs %d bytes", cryptoDomain.ErrInvalidKeySize, cryptoDomain.KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESGCMCipher{sealer{aead: aead}}, nil
}
