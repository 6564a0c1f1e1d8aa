package accounts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/karma-tracker/internal/config"
	"serotonyl.ru/karma-tracker/internal/storage"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	cfg := &config.Config{
		DBURL:             filepath.Join(t.TempDir(), "karma.sqlite"),
		DBMaxConns:        4,
		DBMinConns:        1,
		DBBusyTimeout:     5 * time.Second,
		DBConnMaxLifetime: time.Hour,
	}
	m, err := storage.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return NewRepository(m.DB())
}

func TestRepository_InsertAndGetUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user, err := NewUser("johnny", "Passw0rd!")
	require.NoError(t, err)

	_, err = repo.InsertUser(ctx, user)
	require.NoError(t, err)

	got, err := repo.GetUser(ctx, "johnny")
	require.NoError(t, err)
	assert.Equal(t, "johnny", got.Username.String())
	assert.Equal(t, user.Password.Hash(), got.Password.Hash())
	assert.True(t, got.Password.Verify("Passw0rd!"))
}

func TestRepository_DuplicateUsername(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, err := NewUser("johnny", "Passw0rd!")
	require.NoError(t, err)
	second, err := NewUser("johnny", "An0ther.one")
	require.NoError(t, err)

	_, err = repo.InsertUser(ctx, first)
	require.NoError(t, err)
	_, err = repo.InsertUser(ctx, second)
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestRepository_GetMissingUser(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetUser(context.Background(), "nobody1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepository_GetUserRevalidatesUsername(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	// строка, записанная в обход проверок (например, по старым правилам)
	_, err := repo.db.ExecContext(ctx, "INSERT INTO users (username, password) VALUES ('Legacy', 'x')")
	require.NoError(t, err)

	_, err = repo.GetUser(ctx, "Legacy")
	assert.ErrorIs(t, err, storage.ErrDecode)
}
