package store

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/database"
	"github.com/isdelr/chaptermark-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AccountStore {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	return NewAccountStore(db)
}

func TestCreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	email := gofakeit.Email()
	acc, err := s.Create(ctx, "  "+email+" ", "hash", models.RoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, NormalizeEmail(email), acc.Email)

	byEmail, err := s.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.Equal(t, models.RoleUser, byEmail.Role)

	byID, err := s.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.Email, byID.Email)
}

func TestFind_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreate_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "dup@example.com", "h1", models.RoleUser)
	require.NoError(t, err)

	_, err = s.Create(ctx, "DUP@example.com", "h2", models.RoleUser)
	assert.ErrorIs(t, err, common.ErrDuplicateAccount)
}

func TestCreate_ConcurrentDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Create(ctx, "race@example.com", "hash", models.RoleUser)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, common.ErrDuplicateAccount)
	}
	assert.Equal(t, 1, created)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSave_UpdatesProfileOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)

	acc.DisplayName = "Ada"
	acc.Bio = "Mathematician"
	acc.Role = models.RoleOwner
	require.NoError(t, s.Save(ctx, acc))

	got, err := s.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, "Mathematician", got.Bio)
	assert.Equal(t, models.RoleUser, got.Role)

	err = s.Save(ctx, models.Account{ID: "missing"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestToggleAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)

	toggled, err := s.ToggleAdmin(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, toggled.Role)

	toggled, err = s.ToggleAdmin(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, toggled.Role)

	_, err = s.ToggleAdmin(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestToggleAdmin_OwnerUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner, err := s.Create(ctx, gofakeit.Email(), "hash", models.RoleOwner)
	require.NoError(t, err)

	_, err = s.ToggleAdmin(ctx, owner.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	got, err := s.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, got.Role)
}

func TestPromoteToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)
	require.NoError(t, s.PromoteToOwner(ctx, acc.ID))

	got, err := s.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOwner())

	assert.ErrorIs(t, s.PromoteToOwner(ctx, "missing"), common.ErrNotFound)
}

func TestCreate_DBErrorIsNotDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	s := NewAccountStore(&database.DB{DB: db, Dialect: database.SQLite})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(errors.New("disk I/O error"))

	_, err = s.Create(context.Background(), "a@example.com", "hash", models.RoleUser)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrDuplicateAccount)
	assert.Contains(t, err.Error(), "disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	s := NewAccountStore(&database.DB{DB: db, Dialect: database.Postgres})

	mock.ExpectQuery(`FROM accounts WHERE id = \$1`).
		WithArgs("id-1").
		WillReturnError(errors.New("connection reset"))

	_, err = s.FindByID(context.Background(), "id-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
