package refreshtokens

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewRedisStore(rdb, time.Second), mr, rdb
}

func TestRedisStore_PutGet(t *testing.T) {
	s, mr, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "acc-1", "tok-1", time.Hour))
	raw, err := mr.Get("refresh:acc-1")
	require.NoError(t, err)
	require.Equal(t, "tok-1", raw)
	require.Equal(t, time.Hour, mr.TTL("refresh:acc-1"))

	got, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.Equal(t, "tok-1", got)
}

func TestRedisStore_LastWriterWins(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	for _, tok := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put(ctx, "acc-1", tok, time.Hour))
	}

	got, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.Equal(t, "c", got)
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "acc-1", "tok", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "acc-1")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestRedisStore_Invalidate(t *testing.T) {
	s, mr, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "acc-1", "tok", time.Hour))
	require.NoError(t, s.Invalidate(ctx, "acc-1"))
	require.False(t, mr.Exists("refresh:acc-1"))

	require.NoError(t, s.Invalidate(ctx, "acc-1"), "invalidating a missing token is not an error")
}

func TestRedisStore_RejectsNonPositiveTTL(t *testing.T) {
	s, mr, _ := newTestStore(t)

	err := s.Put(context.Background(), "acc-1", "tok", 0)
	require.ErrorIs(t, err, common.ErrSessionStoreUnavailable)
	require.False(t, mr.Exists("refresh:acc-1"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	s, mr, _ := newTestStore(t)
	ctx := context.Background()
	mr.Close()

	require.ErrorIs(t, s.Put(ctx, "acc-1", "tok", time.Hour), common.ErrSessionStoreUnavailable)
	_, err := s.Get(ctx, "acc-1")
	require.ErrorIs(t, err, common.ErrSessionStoreUnavailable)
	require.ErrorIs(t, s.Invalidate(ctx, "acc-1"), common.ErrSessionStoreUnavailable)
	require.Error(t, s.Ping(ctx))
}

func TestRedisStore_ReleasesConnections(t *testing.T) {
	s, _, rdb := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Put(ctx, "acc", "tok", time.Hour))
		_, _ = s.Get(ctx, "acc")
	}

	stats := rdb.PoolStats()
	require.Equal(t, stats.TotalConns, stats.IdleConns, "every checked-out connection must be returned")
}

func TestNewRedisClient(t *testing.T) {
	c, err := NewRedisClient("redis://localhost:6379/0")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = NewRedisClient("::bad")
	require.Error(t, err)
}
