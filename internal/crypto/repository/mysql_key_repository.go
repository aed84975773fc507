package repository

import (
	"context"
	"database/sql"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// MySQLKeyRepository stores wrapped data keys in MySQL.
// Uses BINARY(16) for UUIDs and BLOB for binary data with transaction support.
type MySQLKeyRepository struct {
	db *sql.DB
}

// Create inserts a wrapped data key. A duplicate version yields ErrKeyVersionConflict.
func (m *MySQLKeyRepository) Create(ctx context.Context, key *cryptoDomain.DataKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO encryption_keys (id, version, algorithm, master_key_id, encrypted_key, nonce, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal encryption key id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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

// Update replaces the wrapping of an existing data key.
func (m *MySQLKeyRepository) Update(ctx context.Context, key *cryptoDomain.DataKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE encryption_keys
			  SET master_key_id = ?,
				  encrypted_key = ?,
				  nonce = ?
			  WHERE id = ?`

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal encryption key id")
	}

	result, err := querier.ExecContext(ctx, query, key.MasterKeyID, key.EncryptedKey, key.Nonce, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update encryption key")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "encryption key")
	}
	return nil
}

// List returns every data key ordered by version descending (newest first).
func (m *MySQLKeyRepository) List(ctx context.Context) ([]*cryptoDomain.DataKey, error) {
	querier := database.GetTx(ctx, m.db)

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
		var id []byte

		err := rows.Scan(
			&id,
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

		if err := key.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal encryption key id")
		}

		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// NewMySQLKeyRepository creates a new MySQL key repository.
func NewMySQLKeyRepository(db *sql.DB) *MySQLKeyRepository {
	return &MySQLKeyRepository{db: db}
}
