package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-console/internal/domain"
	"user-console/internal/repository"
)

const dsnEnv = "USERCONSOLE_TEST_POSTGRES_DSN"

// newTestRepo runs against the database named by USERCONSOLE_TEST_POSTGRES_DSN
// inside a schema of its own that is dropped afterwards.
func newTestRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}
	ctx := context.Background()

	admin, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	schema := fmt.Sprintf("user_console_test_%d", time.Now().UnixNano())
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewUserRepository(pool)
	require.NoError(t, repo.Init(ctx))
	return repo
}

func TestUserRepositoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := &domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h", IsActive: true}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	got.IsActive = false
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	users, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), domain.ErrUserNotFound)
}

func TestUserRepositoryErrorMapping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = repo.Update(ctx, &domain.User{ID: 999, Name: "x", Email: "x@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.Create(ctx, &domain.User{Name: "A", Email: "dup@example.com", PasswordHash: "h", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.User{Name: "B", Email: "dup@example.com", PasswordHash: "h", IsActive: true})
	assert.ErrorIs(t, err, domain.ErrEmailRegistered)

	other := &domain.User{Name: "C", Email: "c@example.com", PasswordHash: "h", IsActive: true}
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)
	other.Email = "dup@example.com"
	assert.ErrorIs(t, repo.Update(ctx, other), domain.ErrEmailRegistered)
}
