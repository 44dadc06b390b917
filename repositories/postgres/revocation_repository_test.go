package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/repositories"
	"go.uber.org/zap"
)

func TestRevocationRepository_IsRevoked(t *testing.T) {
	ctx := context.Background()
	tokenID := auth.TokenID("token")
	exists := regexp.QuoteMeta("SELECT EXISTS")

	for _, want := range []bool{true, false} {
		db, mock := newMockDB(t)
		repo := NewRevocationRepository(db, zap.NewNop())

		mock.ExpectQuery(exists).
			WithArgs(tokenID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(want))

		got, err := repo.IsRevoked(ctx, tokenID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	}

	t.Run("query failure surfaces", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRevocationRepository(db, zap.NewNop())

		mock.ExpectQuery(exists).WillReturnError(errors.New("timeout"))

		_, err := repo.IsRevoked(ctx, tokenID)
		assert.Error(t, err)
	})
}

func TestRevocationRepository_RevokeIsUpsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRevocationRepository(db, zap.NewNop())
	tokenID := auth.TokenID("token")
	exp := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	insert := regexp.QuoteMeta("ON CONFLICT (token_id) DO UPDATE")
	mock.ExpectExec(insert).WithArgs(tokenID, exp).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).WithArgs(tokenID, exp).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Revoke(context.Background(), tokenID, exp))
	require.NoError(t, repo.Revoke(context.Background(), tokenID, exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocationRepository_PurgeExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRevocationRepository(db, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens WHERE expires_at <= now()")).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocationRepository_Ping(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRevocationRepository(db, zap.NewNop())

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	pinger, ok := repo.(repositories.Pinger)
	require.True(t, ok)
	require.NoError(t, pinger.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS revoked_tokens")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
