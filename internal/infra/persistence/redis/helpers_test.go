package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"keyauth/config"
	"keyauth/internal/domain/repository"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*UserStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store := NewUserStore(client, discardLogger())

	require.NoError(t, store.Connect(context.Background()))
	t.Cleanup(func() { store.Shutdown(context.Background()) })

	return store, mr
}

func newTestRepository(t *testing.T, prefix string) (repository.UserRepository, *UserStore, *miniredis.Miniredis) {
	t.Helper()

	store, mr := newTestStore(t)
	repo := NewUserRepository(UserRepositoryParams{
		Store:  store,
		Config: &config.Config{Redis: &config.RedisConfig{KeyPrefix: prefix}},
		Logger: discardLogger(),
	})

	return repo, store, mr
}
