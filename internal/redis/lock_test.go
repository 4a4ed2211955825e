package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/config"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisJobLocker_ExclusiveAndReleased(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewRedisJobLocker(client, time.Minute)
	ctx := context.Background()

	err := locker.WithLock(ctx, "regenerate", func(ctx context.Context) error {
		assert.True(t, mr.Exists(lockKey("regenerate")))

		inner := locker.WithLock(ctx, "regenerate", func(context.Context) error {
			t.Fatal("second holder must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockNotAcquired)

		return locker.WithLock(ctx, "reminders", func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(lockKey("regenerate")), "lock released after fn")
}

func TestRedisJobLocker_DoesNotDeleteForeignToken(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewRedisJobLocker(client, time.Minute)

	err := locker.WithLock(context.Background(), "regenerate", func(context.Context) error {
		// another replica took over after expiry
		mr.Set(lockKey("regenerate"), "someone-else")
		return nil
	})
	require.NoError(t, err)

	got, err := mr.Get(lockKey("regenerate"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisJobLocker_PropagatesError(t *testing.T) {
	_, client := newTestClient(t)
	boom := errors.New("boom")

	err := NewRedisJobLocker(client, time.Minute).WithLock(context.Background(), "job", func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	err := l.WithLock(ctx, "job", func(ctx context.Context) error {
		assert.ErrorIs(t, l.WithLock(ctx, "job", func(context.Context) error { return nil }), ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, l.WithLock(ctx, "job", func(context.Context) error { return nil }))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := NewRedisClient(context.Background(), config.Config{RedisAddr: addr})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), config.Config{RedisAddr: addr})
	assert.Error(t, err)
}
