package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "refresh:"

// RedisStore implements Store. Each operation checks out a dedicated
// connection from the client pool and releases it before returning.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, timeout: timeout}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

func key(accountID string) string { return keyPrefix + accountID }

func (s *RedisStore) withConn(ctx context.Context, fn func(ctx context.Context, conn *redis.Conn) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	conn := s.client.Conn()
	defer conn.Close()

	return fn(ctx, conn)
}

func (s *RedisStore) Put(ctx context.Context, accountID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: non-positive ttl", common.ErrSessionStoreUnavailable)
	}
	err := s.withConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		return conn.Set(ctx, key(accountID), token, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrSessionStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, accountID string) (string, error) {
	var token string
	err := s.withConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		v, err := conn.Get(ctx, key(accountID)).Result()
		token = v
		return err
	})
	if errors.Is(err, redis.Nil) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrSessionStoreUnavailable, err)
	}
	return token, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, accountID string) error {
	err := s.withConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		return conn.Del(ctx, key(accountID)).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrSessionStoreUnavailable, err)
	}
	return nil
}

// Ping checks that the store is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		return conn.Ping(ctx).Err()
	})
}
