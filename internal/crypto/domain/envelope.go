package domain

import (
	"encoding/base64"
	"encoding/binary"
	"strings"
)

// EnvelopePrefix marks a serialized envelope and its format version.
const EnvelopePrefix = "fv1:"

// Envelope is a sealed field value. Ciphertext carries the authentication tag
// appended by the AEAD.
type Envelope struct {
	KeyVersion uint16
	Nonce      []byte
	Ciphertext []byte
}

// String serializes the envelope as EnvelopePrefix followed by unpadded base64url of
// key_version (2 bytes, big endian) || nonce || ciphertext || tag.
func (e Envelope) String() string {
	buf := make([]byte, 2+len(e.Nonce)+len(e.Ciphertext))
	binary.BigEndian.PutUint16(buf[:2], e.KeyVersion)
	copy(buf[2:], e.Nonce)
	copy(buf[2+len(e.Nonce):], e.Ciphertext)
	return EnvelopePrefix + base64.RawURLEncoding.EncodeToString(buf)
}

// ParseEnvelope decodes a serialized envelope. Every malformed input yields
// ErrDecryptionFailed.
func ParseEnvelope(s string) (Envelope, error) {
	if !strings.HasPrefix(s, EnvelopePrefix) {
		return Envelope{}, ErrDecryptionFailed
	}
	raw, err := base64.RawURLEncoding.DecodeString(s[len(EnvelopePrefix):])
	if err != nil {
		return Envelope{}, ErrDecryptionFailed
	}
	if len(raw) < 2+NonceSize+TagSize {
		return Envelope{}, ErrDecryptionFailed
	}

	version := binary.BigEndian.Uint16(raw[:2])
	if version == 0 {
		return Envelope{}, ErrDecryptionFailed
	}
	return Envelope{
		KeyVersion: version,
		Nonce:      raw[2 : 2+NonceSize],
		Ciphertext: raw[2+NonceSize:],
	}, nil
}

// IsEnvelope reports whether s looks like a serialized envelope.
func IsEnvelope(s string) bool {
	return strings.HasPrefix(s, EnvelopePrefix)
}
