// Package repository persists wrapped data keys and rewrites sealed entity columns.
//
// Every repository is transaction aware through database.GetTx, so key rotation and
// batch rewraps can run inside database.TxManager.WithTx.
//
//	keyRepo := repository.NewPostgreSQLKeyRepository(db)
//	err := txManager.WithTx(ctx, func(txCtx context.Context) error {
//	    keys, err := keyRepo.List(txCtx)
//	    ...
//	    return keyRepo.Create(txCtx, next)
//	})
package repository

import (
	"context"
	"database/sql"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// PostgreSQLKeyRepository stores wrapped data keys in encryption_keys using the native
// UUID type and BYTEA for the wrapped key and nonce.
type PostgreSQLKeyRepository struct {
	db *sql.DB
}

// Create inserts a wrapped data key. A duplicate version yields ErrKeyVersionConflict.
func (p *PostgreSQLKeyRepository) Create(ctx context.Context, key *cryptoDomain.DataKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO encryption_keys (id, version, algorithm, master_key_id, encrypted_key, nonce, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.ID,
		key.Version,
		key.Algorithm,
		key.MasterKeyID,
		key.EncryptedKey,
		key.Nonce,
		key.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Wrap(cryptoDomain.ErrKeyVersionConflict, "failed to create encryption key")
		}
		return apperrors.Wrap(err, "failed to create encryption key")
	}
	return nil
}

// Update replaces the wrapping of an existing data key (master key rotation). The
// version and algorithm of a key never change.
func (p *PostgreSQLKeyRepository) Update(ctx context.Context, key *cryptoDomain.DataKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE encryption_keys
			  SET master_key_id = $1,
				  encrypted_key = $2,
				  nonce = $3
			  WHERE id = $4`

	result, err := querier.ExecContext(ctx, query, key.MasterKeyID, key.EncryptedKey, key.Nonce, key.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update encryption key")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "encryption key")
	}
	return nil
}

// List returns every data key ordered by version descending (newest first).
func (p *PostgreSQLKeyRepository) List(ctx context.Context) ([]*cryptoDomain.DataKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, version, algorithm, master_key_id, encrypted_key, nonce, created_at
			  FROM encryption_keys ORDER BY version DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list encryption keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []*cryptoDomain.DataKey
	for rows.Next() {
		var key cryptoDomain.DataKey

		err := rows.Scan(
			&key.ID,
			&key.Version,
			&key.Algorithm,
			&key.MasterKeyID,
			&key.EncryptedKey,
			&key.Nonce,
			&key.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// NewPostgreSQLKeyRepository creates a new PostgreSQL key repository.
func NewPostgreSQLKeyRepository(db *sql.DB) *PostgreSQLKeyRepository {
	return &PostgreSQLKeyRepository{db: db}
}
