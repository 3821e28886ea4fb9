package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dgallion1/tabsite/internal/doctree"
)

// RedisCache stores the last good document as JSON under a single key.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache connects to redisURL. docID namespaces the key so several
// sites can share one Redis.
func NewRedisCache(redisURL, docID string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, docID, ttl), nil
}

func NewRedisCacheWithClient(client *redis.Client, docID string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, key: "tabsite:document:" + docID, ttl: ttl}
}

// Load returns nil, nil when nothing is cached.
func (c *RedisCache) Load(ctx context.Context) (*doctree.Document, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cached document: %w", err)
	}
	var doc doctree.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cached document: %w", err)
	}
	return &doc, nil
}

// Save writes doc with the configured TTL; zero keeps it forever.
func (c *RedisCache) Save(ctx context.Context, doc *doctree.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("save cached document: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
