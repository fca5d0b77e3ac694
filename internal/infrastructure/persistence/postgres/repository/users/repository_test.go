package users

import (
	"context"
	"testing"
	"time"

	"stars-subscription-bot/internal/infrastructure/cache/redis"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByTelegramID_UsesCache(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewUserRepository(sqlx.NewDb(db, "sqlmock"), redis.NewCacheWithClient(client, "test:"))
	now := time.Now().UTC()

	mock.ExpectQuery("FROM users").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "telegram_id", "username", "subscription_level", "subscription_expiry", "created_at", "updated_at",
		}).AddRow(int64(7), int64(42), "alice", "basic", now.Add(7*24*time.Hour), now, now))

	user, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)

	// второй вызов обслуживается кэшем, запроса к БД нет
	cached, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "basic", cached.SubscriptionLevel)
	assert.NoError(t, mock.ExpectationsWereMet())

	repo.InvalidateCache(ctx, 42)
	assert.False(t, mr.Exists("test:user:telegram:42"))
}

func TestFindByTelegramID_NotFoundWithoutCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(sqlx.NewDb(db, "sqlmock"), nil)
	mock.ExpectQuery("FROM users").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.FindByTelegramID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, user)
}
