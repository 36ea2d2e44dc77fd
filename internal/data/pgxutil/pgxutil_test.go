package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSQLTxRetriesSerializationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err = WithSQLTx(context.Background(), db, SQLTxConfig{Attempts: 3, Fn: func(*sql.Tx) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	}})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSQLTxDoesNotRetryOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	calls := 0
	err = WithSQLTx(context.Background(), db, SQLTxConfig{Attempts: 3, Fn: func(*sql.Tx) error {
		calls++
		return boom
	}})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSQLTxGivesUpAfterAttempts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range 2 {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	err = WithSQLTx(context.Background(), db, SQLTxConfig{Attempts: 2, Fn: func(*sql.Tx) error {
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	}})

	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: pgerrcode.CheckViolation}))
}
