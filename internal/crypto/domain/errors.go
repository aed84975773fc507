package domain

import (
	"github.com/allisson/fieldvault/internal/errors"
)

// Cryptographic error definitions. They wrap internal/errors sentinels so the HTTP
// layer maps them without knowing about cryptography.
var (
	// ErrUnsupportedAlgorithm indicates the requested algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a master key or data key is not 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed is returned for every failure to open an envelope: malformed
	// input, unknown key version, wrong key, corrupted ciphertext or tag mismatch.
	// The causes are deliberately indistinguishable to callers.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrKeyUnavailable indicates no usable data key is loaded. Sealing never falls
	// back to plaintext when this is returned.
	ErrKeyUnavailable = errors.Wrap(errors.ErrUnavailable, "encryption key unavailable")

	// ErrKeyVersionConflict indicates a data key version is already present in the keyset
	// or is older than the active version.
	ErrKeyVersionConflict = errors.Wrap(errors.ErrConflict, "key version conflict")

	// ErrMasterKeysNotSet indicates MASTER_KEYS is empty.
	ErrMasterKeysNotSet = errors.Wrap(errors.ErrInvalidInput, "MASTER_KEYS not set")

	// ErrActiveMasterKeyIDNotSet indicates ACTIVE_MASTER_KEY_ID is empty.
	ErrActiveMasterKeyIDNotSet = errors.Wrap(errors.ErrInvalidInput, "ACTIVE_MASTER_KEY_ID not set")

	// ErrInvalidMasterKeysFormat indicates a MASTER_KEYS entry is not "id:base64".
	ErrInvalidMasterKeysFormat = errors.Wrap(errors.ErrInvalidInput, "invalid MASTER_KEYS format")

	// ErrInvalidMasterKeyBase64 indicates a master key is not valid base64.
	ErrInvalidMasterKeyBase64 = errors.Wrap(errors.ErrInvalidInput, "invalid master key base64")

	// ErrActiveMasterKeyNotFound indicates ACTIVE_MASTER_KEY_ID is not among MASTER_KEYS.
	ErrActiveMasterKeyNotFound = errors.Wrap(errors.ErrInvalidInput, "active master key not found")

	// ErrMasterKeyNotFound indicates a data key references an unknown master key.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrNotFound, "master key not found")
)
