package domain

import "fmt"

// Algorithm represents the AEAD algorithm bound to a data key.
//
// Both algorithms use a 256-bit key, a 96-bit nonce and a 128-bit tag, so the
// envelope layout is identical whichever one sealed a value.
type Algorithm string

const (
	// AESGCM is AES-256-GCM. Default; hardware accelerated on AES-NI capable CPUs.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305, for hosts without AES acceleration.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// ParseAlgorithm maps a configuration or CLI value to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
}

const (
	// KeySize is the size in bytes of master keys and data keys.
	KeySize = 32
	// NonceSize is the size in bytes of the per-envelope nonce.
	NonceSize = 12
	// TagSize is the size in bytes of the AEAD authentication tag.
	TagSize = 16
)
