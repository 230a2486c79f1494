package cache

import (
	"context"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

// MemoryProvider is an in-process Provider backed by ristretto, used when
// the service runs without a Redis (cache.backend = "memory").
type MemoryProvider struct {
	c *rc.Cache
}

var _ Provider = (*MemoryProvider)(nil)

func NewMemoryProvider() (*MemoryProvider, error) {
	c, err := rc.NewCache(&rc.Config{
		NumCounters: 1 << 16,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryProvider{c: c}, nil
}

func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	p.c.SetWithTTL(key, value, int64(len(value)), ttl)
	// ristretto admits writes asynchronously; Wait keeps the read-through
	// property that a populate is visible to the next request.
	p.c.Wait()
	return nil
}

func (p *MemoryProvider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *MemoryProvider) Close(context.Context) error {
	p.c.Close()
	return nil
}
