package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Cache wraps a DocumentStore with redis-backed read-through caching of Get.
// Any write to a document evicts its cached copy; queries always go to the
// backing store.
type Cache struct {
	base  DocumentStore
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper around the given store.
func NewCache(base DocumentStore, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, collection, id string) (Document, error) {
	if doc, ok := c.loadFromCache(ctx, collection, id); ok {
		return doc, nil
	}

	doc, err := c.base.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, collection, id, doc)
	return doc, nil
}

func (c *Cache) Set(ctx context.Context, collection, id string, doc Document) error {
	if err := c.base.Set(ctx, collection, id, doc); err != nil {
		return err
	}
	c.evict(ctx, collection, id)
	return nil
}

func (c *Cache) Update(ctx context.Context, collection, id string, fields Document) error {
	if err := c.base.Update(ctx, collection, id, fields); err != nil {
		return err
	}
	c.evict(ctx, collection, id)
	return nil
}

func (c *Cache) Delete(ctx context.Context, collection, id string) error {
	if err := c.base.Delete(ctx, collection, id); err != nil {
		return err
	}
	c.evict(ctx, collection, id)
	return nil
}

func (c *Cache) Add(ctx context.Context, collection string, doc Document) (string, error) {
	return c.base.Add(ctx, collection, doc)
}

func (c *Cache) QueryByField(ctx context.Context, collection, field, value string) (map[string]Document, error) {
	return c.base.QueryByField(ctx, collection, field, value)
}

func (c *Cache) QueryByArrayMembership(ctx context.Context, collection, field, member string) (map[string]Document, error) {
	return c.base.QueryByArrayMembership(ctx, collection, field, member)
}

func (c *Cache) loadFromCache(ctx context.Context, collection, id string) (Document, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, cacheKey(collection, id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, cacheKey(collection, id)).Err()
		}
		return nil, false
	}
	var doc Document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		_ = c.redis.Del(ctx, cacheKey(collection, id)).Err()
		return nil, false
	}
	return doc, true
}

func (c *Cache) store(ctx context.Context, collection, id string, doc Document) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(doc)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKey(collection, id), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, collection, id string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, cacheKey(collection, id)).Result()
}

func cacheKey(collection, id string) string {
	return "doc:" + collection + ":" + id
}
