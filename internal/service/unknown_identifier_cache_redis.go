package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisUnknownIdentifierCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisUnknownIdentifierCache(client redis.UniversalClient, prefix string) *RedisUnknownIdentifierCache {
	if prefix == "" {
		prefix = "unknown_identifiers"
	}
	return &RedisUnknownIdentifierCache{client: client, prefix: prefix}
}

func (c *RedisUnknownIdentifierCache) Contains(ctx context.Context, identifier string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	_, err := c.client.Get(ctx, c.dataKey(identifier)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisUnknownIdentifierCache) Remember(ctx context.Context, identifier string, ttl time.Duration) error {
	if c.client == nil || ttl <= 0 {
		return nil
	}
	dataKey := c.dataKey(identifier)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, dataKey, "1", ttl)
	pipe.SAdd(ctx, c.indexKey(), dataKey)
	pipe.Expire(ctx, c.indexKey(), ttl+time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisUnknownIdentifierCache) Reset(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	keys, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := c.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, c.indexKey())
	_, err = pipe.Exec(ctx)
	return err
}

// Identifiers are hashed before they become redis keys so logins and emails
// never appear in the keyspace.
func (c *RedisUnknownIdentifierCache) dataKey(identifier string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(identifier)))
	return fmt.Sprintf("%s:data:%s", c.prefix, hex.EncodeToString(sum[:]))
}

func (c *RedisUnknownIdentifierCache) indexKey() string {
	return fmt.Sprintf("%s:index", c.prefix)
}
