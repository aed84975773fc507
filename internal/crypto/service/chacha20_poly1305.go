package service

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20Poly1305Cipher is ChaCha20-Poly1305 for hosts without AES acceleration.
// Nonce and tag sizes match AES-GCM, so both share one envelope layout.
type ChaCha20Poly1305Cipher struct {
	sealer
}

// NewChaCha20Poly1305 creates a ChaCha20-Poly1305 cipher from a 32-byte key.
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305Cipher, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}
	return &ChaCha20Poly1305Cipher{sealer{aead: aead}}, nil
}
