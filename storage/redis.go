package storage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a DocumentStore backed by redis hashes: one hash per document,
// keyed "<collection>:<id>", one hash field per top-level document field.
// HSET on individual fields gives the same merge-write behavior the table
// backend gets from merge-mode upserts.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func docKey(collection, id string) string {
	return collection + ":" + id
}

func (r *Redis) Get(ctx context.Context, collection, id string) (Document, error) {
	fields, err := r.client.HGetAll(ctx, docKey(collection, id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	doc := make(Document, len(fields))
	for k, v := range fields {
		doc[k] = json.RawMessage(v)
	}
	return doc, nil
}

func (r *Redis) Set(ctx context.Context, collection, id string, doc Document) error {
	if len(doc) == 0 {
		return nil
	}
	args := make([]any, 0, len(doc)*2)
	for k, v := range doc {
		args = append(args, k, string(v))
	}
	return r.client.HSet(ctx, docKey(collection, id), args...).Err()
}

func (r *Redis) Update(ctx context.Context, collection, id string, fields Document) error {
	key := docKey(collection, id)
	var sets []any
	var dels []string
	for k, v := range fields {
		if v == nil {
			dels = append(dels, k)
			continue
		}
		sets = append(sets, k, string(v))
	}
	if len(sets) > 0 {
		if err := r.client.HSet(ctx, key, sets...).Err(); err != nil {
			return err
		}
	}
	if len(dels) > 0 {
		if err := r.client.HDel(ctx, key, dels...).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, collection, id string) error {
	n, err := r.client.Del(ctx, docKey(collection, id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	if err := r.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Redis) QueryByField(ctx context.Context, collection, field, value string) (map[string]Document, error) {
	return r.scan(ctx, collection, func(doc Document) bool {
		return matchField(doc, field, value)
	})
}

func (r *Redis) QueryByArrayMembership(ctx context.Context, collection, field, member string) (map[string]Document, error) {
	return r.scan(ctx, collection, func(doc Document) bool {
		return matchMembership(doc, field, member)
	})
}

func (r *Redis) scan(ctx context.Context, collection string, keep func(Document) bool) (map[string]Document, error) {
	prefix := collection + ":"
	out := map[string]Document{}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			id := strings.TrimPrefix(key, prefix)
			doc, err := r.Get(ctx, collection, id)
			if err == ErrNotFound {
				continue
			}
			if err != nil {
				return nil, err
			}
			if keep(doc) {
				out[id] = doc
			}
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}
