package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits and exposes the transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewTxManager(db).WithTx(ctx, func(txCtx context.Context) error {
			assert.True(t, InTx(txCtx))
			assert.IsType(t, &sql.Tx{}, GetTx(txCtx, db))
			_, err := GetTx(txCtx, db).ExecContext(txCtx, "INSERT INTO audit_logs VALUES (1)")
			return err
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := NewTxManager(db).WithTx(ctx, func(context.Context) error {
			return assert.AnError
		})

		assert.Equal(t, assert.AnError, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		txManager := NewTxManager(db)
		err := txManager.WithTx(ctx, func(outer context.Context) error {
			return txManager.WithTx(outer, func(inner context.Context) error {
				assert.Same(t, GetTx(outer, db), GetTx(inner, db))
				return nil
			})
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inner error rolls back the outer transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		txManager := NewTxManager(db)
		err := txManager.WithTx(ctx, func(outer context.Context) error {
			return txManager.WithTx(outer, func(context.Context) error {
				return assert.AnError
			})
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

		called := false
		err := NewTxManager(db).WithTx(ctx, func(context.Context) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.False(t, called)
	})

	t.Run("commit error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(sql.ErrTxDone)

		err := NewTxManager(db).WithTx(ctx, func(context.Context) error { return nil })

		assert.ErrorIs(t, err, sql.ErrTxDone)
		assert.Contains(t, err.Error(), "failed to commit transaction")
	})

	t.Run("rollback error keeps both errors", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(sql.ErrTxDone)

		err := NewTxManager(db).WithTx(ctx, func(context.Context) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.ErrorIs(t, err, sql.ErrTxDone)
	})

	t.Run("panic rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.PanicsWithValue(t, "boom", func() {
			_ = NewTxManager(db).WithTx(ctx, func(context.Context) error {
				panic("boom")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTx_WithoutTransaction(t *testing.T) {
	db, _ := newMockDB(t)

	assert.False(t, InTx(context.Background()))
	assert.Equal(t, db, GetTx(context.Background(), db))
}
