package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/models"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return Wrap(db, zap.NewNop()), mock
}

func TestUserRepository_FindByID(t *testing.T) {
	ctx := context.Background()
	selectUser := regexp.QuoteMeta("SELECT id, email, role, token_version, created_at, updated_at")

	t.Run("returns live identity", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery(selectUser).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "token_version", "created_at", "updated_at"}).
				AddRow(id, "ada@example.com", "admin", int64(3), now, now))

		identity, err := repo.FindByID(ctx, id.String())
		require.NoError(t, err)
		assert.Equal(t, id.String(), identity.ID)
		assert.Equal(t, auth.RoleAdmin, identity.Role)
		assert.Equal(t, int64(3), identity.TokenVersion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		id := uuid.New()

		mock.ExpectQuery(selectUser).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "token_version", "created_at", "updated_at"}))

		_, err := repo.FindByID(ctx, id.String())
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-uuid subject is not found without querying", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		_, err := repo.FindByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is not a not-found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		id := uuid.New()

		mock.ExpectQuery(selectUser).WithArgs(id).WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByID(ctx, id.String())
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, zap.NewNop())
	user := models.NewUser("ada@example.com", auth.RoleUser)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(user.ID, user.Email, user.Role, user.TokenVersion, user.CreatedAt, user.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_IncrementTokenVersion(t *testing.T) {
	ctx := context.Background()
	update := regexp.QuoteMeta("SET token_version = token_version + 1")

	t.Run("returns new version", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		id := uuid.New()

		mock.ExpectQuery(update).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(int64(2)))

		version, err := repo.IncrementTokenVersion(ctx, id.String())
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		id := uuid.New()

		mock.ExpectQuery(update).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"token_version"}))

		_, err := repo.IncrementTokenVersion(ctx, id.String())
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}
