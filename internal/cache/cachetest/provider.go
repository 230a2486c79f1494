// Package cachetest provides an in-memory Provider fake with an
// injectable clock and fault hooks for handler tests.
package cachetest

import (
	"context"
	"sync"
	"time"

	"github.com/sigitwie/mysql-w9/internal/cache"
)

type entry struct {
	value []byte
	exp   time.Time // zero => no expiry
}

type Provider struct {
	mu sync.Mutex
	m  map[string]entry

	// Clock is consulted for expiry checks; tests swap it to simulate the
	// passage of time.
	Clock func() time.Time

	// Fault hooks: when set, the corresponding operation fails with the
	// given error.
	GetErr error
	SetErr error
	DelErr error

	Gets int
	Sets int
	Dels int
}

var _ cache.Provider = (*Provider)(nil)

func New() *Provider {
	return &Provider{m: make(map[string]entry), Clock: time.Now}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Gets++
	if p.GetErr != nil {
		return nil, false, p.GetErr
	}
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && p.Clock().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sets++
	if p.SetErr != nil {
		return p.SetErr
	}
	var exp time.Time
	if ttl > 0 {
		exp = p.Clock().Add(ttl)
	}
	p.m[key] = entry{value: value, exp: exp}
	return nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Dels++
	if p.DelErr != nil {
		return p.DelErr
	}
	delete(p.m, key)
	return nil
}

func (p *Provider) Close(context.Context) error { return nil }

// Has reports whether a live (unexpired) entry exists for key without
// counting as a Get.
func (p *Provider) Has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return false
	}
	return e.exp.IsZero() || !p.Clock().After(e.exp)
}

// Put seeds an entry directly.
func (p *Provider) Put(key string, value []byte, ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = p.Clock().Add(ttl)
	}
	p.m[key] = entry{value: value, exp: exp}
}
