package service

import (
	"context"
	"sync"
	"time"
)

// UnknownIdentifierCache remembers login/email identifiers that resolved to
// no account, so credential stuffing against nonexistent users stops hitting
// the database. Entries are forgotten wholesale whenever a user is created.
type UnknownIdentifierCache interface {
	Contains(ctx context.Context, identifier string) (bool, error)
	Remember(ctx context.Context, identifier string, ttl time.Duration) error
	Reset(ctx context.Context) error
}

type NoopUnknownIdentifierCache struct{}

func (NoopUnknownIdentifierCache) Contains(context.Context, string) (bool, error) { return false, nil }

func (NoopUnknownIdentifierCache) Remember(context.Context, string, time.Duration) error {
	return nil
}

func (NoopUnknownIdentifierCache) Reset(context.Context) error { return nil }

type InMemoryUnknownIdentifierCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewInMemoryUnknownIdentifierCache() *InMemoryUnknownIdentifierCache {
	return &InMemoryUnknownIdentifierCache{entries: make(map[string]time.Time)}
}

func (c *InMemoryUnknownIdentifierCache) Contains(_ context.Context, identifier string) (bool, error) {
	now := time.Now().UTC()
	c.mu.RLock()
	expiresAt, ok := c.entries[identifier]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		c.mu.Lock()
		delete(c.entries, identifier)
		c.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (c *InMemoryUnknownIdentifierCache) Remember(_ context.Context, identifier string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[identifier] = time.Now().UTC().Add(ttl)
	return nil
}

func (c *InMemoryUnknownIdentifierCache) Reset(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]time.Time)
	return nil
}
