package sqlstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/domain"
	"gatekeeper/internal/repository"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t), SQLite)

	user := &domain.User{Username: gofakeit.Username(), PasswordHash: "$2a$04$hash"}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, user.ID)

	byName, err := repo.FindBy(ctx, repository.UserFilter{Username: user.Username})
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
	assert.Equal(t, user.PasswordHash, byName.PasswordHash)
	assert.False(t, byName.CreatedAt.IsZero())

	byID, err := repo.FindBy(ctx, repository.UserFilter{ID: id})
	require.NoError(t, err)
	assert.Equal(t, user.Username, byID.Username)

	_, err = repo.FindBy(ctx, repository.UserFilter{ID: id, Username: "someone-else"})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t), SQLite)

	_, err := repo.Create(ctx, &domain.User{Username: "ada", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Username: "ada", PasswordHash: "h2"})
	require.ErrorIs(t, err, repository.ErrUserExists)
}

func TestUserRepository_FindMissing(t *testing.T) {
	repo := NewUserRepository(openTestDB(t), SQLite)

	user, err := repo.FindBy(context.Background(), repository.UserFilter{Username: "nobody"})
	assert.Nil(t, user)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_FindEmptyFilter(t *testing.T) {
	repo := NewUserRepository(openTestDB(t), SQLite)

	_, err := repo.FindBy(context.Background(), repository.UserFilter{})
	assert.ErrorContains(t, err, "empty filter")
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t), SQLite)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	names := []string{"ada", "grace", "linus"}
	for _, name := range names {
		_, err := repo.Create(ctx, &domain.User{Username: name, PasswordHash: "hash"})
		require.NoError(t, err)
	}

	users, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, len(names))
	for i, name := range names {
		assert.Equal(t, name, users[i].Username)
	}
}

func TestUserRepository_PostgresUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	q := `(?s)INSERT\s+INTO\s+users\s*\(username,\s*password_hash,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id`
	mock.ExpectQuery(q).
		WithArgs("ada", "hash", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	repo := NewUserRepository(db, Postgres)
	_, err = repo.Create(context.Background(), &domain.User{Username: "ada", PasswordHash: "hash"})
	require.ErrorIs(t, err, repository.ErrUserExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_PostgresFindBy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	q := `(?s)SELECT\s+id,\s*username,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+LIMIT\s+1`
	mock.ExpectQuery(q).
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}))

	repo := NewUserRepository(db, Postgres)
	_, err = repo.FindBy(context.Background(), repository.UserFilter{Username: "ada"})
	require.ErrorIs(t, err, repository.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_StoreError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id")).WillReturnError(assert.AnError)

	repo := NewUserRepository(db, Postgres)
	_, err = repo.List(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, repository.ErrUserExists)
}
