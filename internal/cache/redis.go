package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisProvider adapts a go-redis client to the Provider interface.
type RedisProvider struct {
	rdb goredis.UniversalClient
}

var _ Provider = (*RedisProvider)(nil)

func NewRedisProvider(rdb goredis.UniversalClient) (*RedisProvider, error) {
	if rdb == nil {
		return nil, errors.New("redis provider: nil client")
	}
	return &RedisProvider{rdb: rdb}, nil
}

func (p *RedisProvider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *RedisProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return p.rdb.Set(ctx, key, value, ttl).Err()
}

func (p *RedisProvider) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

func (p *RedisProvider) Close(context.Context) error {
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
