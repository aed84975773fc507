// Package usecase implements the data key lifecycle (create, rotate, unwrap, master key
// rewrap) and the re-sealing of stored envelopes after a rotation.
package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

// KeyRepository persists wrapped data keys.
//
// Implementations must honor a transaction carried by ctx (database.GetTx) and return
// keys from List ordered by version descending.
type KeyRepository interface {
	Create(ctx context.Context, key *cryptoDomain.DataKey) error
	Update(ctx context.Context, key *cryptoDomain.DataKey) error
	List(ctx context.Context) ([]*cryptoDomain.DataKey, error)
}

// FieldRepository pages through entity tables and rewrites sealed columns.
type FieldRepository interface {
	ListPage(ctx context.Context, entity registry.Entity, cursor string, limit int) ([]*cryptoDomain.SealedRow, error)
	Update(ctx context.Context, entity registry.Entity, id string, values map[string]*string) error
}

// FieldCipher is the engine surface needed to re-seal envelopes.
type FieldCipher interface {
	SealString(s string) (string, error)
	OpenString(s string) (string, error)
	ActiveKeyVersion() uint16
}

// KeyUseCase manages versioned data keys.
//
//	masterKeyChain, err := cryptoDomain.LoadMasterKeyChainFromEnv()
//	...
//	key, err := keyUseCase.Rotate(ctx, masterKeyChain, cryptoDomain.AESGCM)
//	keyset, err := keyUseCase.Unwrap(ctx, masterKeyChain)
type KeyUseCase interface {
	// Create stores data key version 1. It fails with ErrKeyVersionConflict when a key
	// already exists; use Rotate afterwards.
	Create(
		ctx context.Context,
		masterKeyChain *cryptoDomain.MasterKeyChain,
		alg cryptoDomain.Algorithm,
	) (*cryptoDomain.DataKey, error)

	// Rotate stores a new data key with version latest+1 inside a transaction. Older
	// versions are kept so existing envelopes remain readable.
	Rotate(
		ctx context.Context,
		masterKeyChain *cryptoDomain.MasterKeyChain,
		alg cryptoDomain.Algorithm,
	) (*cryptoDomain.DataKey, error)

	// Unwrap decrypts every stored version into an in-memory keyset. It returns
	// ErrKeyUnavailable when no key exists. Callers Close the keyset when done.
	Unwrap(ctx context.Context, masterKeyChain *cryptoDomain.MasterKeyChain) (*cryptoDomain.Keyset, error)

	// RewrapMasterKey re-wraps every data key not wrapped by the active master key and
	// returns how many keys were rewritten.
	RewrapMasterKey(ctx context.Context, masterKeyChain *cryptoDomain.MasterKeyChain) (int, error)

	// List returns the stored key metadata, newest first. Key material stays wrapped.
	List(ctx context.Context) ([]*cryptoDomain.DataKey, error)
}

// FieldRewrapUseCase re-seals stored envelopes under the active key version.
type FieldRewrapUseCase interface {
	// RewrapFields walks the table of entityType in batches of batchSize and re-seals
	// every sensitive column whose envelope uses an older key version. Plaintext values
	// left by rows written before encryption was enabled are sealed too. Each batch
	// is written in its own transaction.
	RewrapFields(ctx context.Context, entityType string, batchSize int) (*cryptoDomain.RewrapResult, error)
}
