package storage

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client)
}

func rawDoc(pairs map[string]string) Document {
	doc := Document{}
	for k, v := range pairs {
		doc[k] = []byte(v)
	}
	return doc
}

func TestRedisGetMissingReturnsNotFound(t *testing.T) {
	store := newTestRedis(t)
	if _, err := store.Get(context.Background(), BoardsCollection, "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisSetMergesFields(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	if err := store.Set(ctx, BoardsCollection, "b1", rawDoc(map[string]string{
		"name":  `"Sprint 1"`,
		"owner": `"u1"`,
	})); err != nil {
		t.Fatalf("set: %v", err)
	}
	// A second write carrying only one field must leave the other intact.
	if err := store.Set(ctx, BoardsCollection, "b1", rawDoc(map[string]string{
		"name": `"Sprint 2"`,
	})); err != nil {
		t.Fatalf("partial set: %v", err)
	}

	doc, err := store.Get(ctx, BoardsCollection, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(doc["name"]) != `"Sprint 2"` {
		t.Fatalf("name not overwritten: %s", doc["name"])
	}
	if string(doc["owner"]) != `"u1"` {
		t.Fatalf("owner clobbered by merge write: %s", doc["owner"])
	}
}

func TestRedisUpdateNilDeletesField(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	if err := store.Set(ctx, UsersCollection, "u1", rawDoc(map[string]string{
		"displayName": `"Ada"`,
		"favourite":   `"b1"`,
	})); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Update(ctx, UsersCollection, "u1", Document{
		"displayName": []byte(`"Ada L"`),
		"favourite":   nil,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, err := store.Get(ctx, UsersCollection, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(doc["displayName"]) != `"Ada L"` {
		t.Fatalf("field not updated: %s", doc["displayName"])
	}
	if _, ok := doc["favourite"]; ok {
		t.Fatal("nil update value should delete the field")
	}
}

func TestRedisDelete(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	if err := store.Set(ctx, BoardsCollection, "b1", rawDoc(map[string]string{"name": `"x"`})); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, BoardsCollection, "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, BoardsCollection, "b1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRedisAddGeneratesDistinctIDs(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	a, err := store.Add(ctx, BoardsCollection, rawDoc(map[string]string{"name": `"a"`}))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := store.Add(ctx, BoardsCollection, rawDoc(map[string]string{"name": `"b"`}))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a == b || a == "" {
		t.Fatalf("expected distinct generated ids, got %q and %q", a, b)
	}
	if _, err := store.Get(ctx, BoardsCollection, a); err != nil {
		t.Fatalf("get added doc: %v", err)
	}
}

func TestRedisQueryByField(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	store.Set(ctx, UsersCollection, "u1", rawDoc(map[string]string{"email": `"ada@example.com"`}))
	store.Set(ctx, UsersCollection, "u2", rawDoc(map[string]string{"email": `"bob@example.com"`}))

	got, err := store.QueryByField(ctx, UsersCollection, "email", "ada@example.com")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if _, ok := got["u1"]; !ok {
		t.Fatalf("wrong match: %v", got)
	}
}

func TestRedisQueryByArrayMembership(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	store.Set(ctx, BoardsCollection, "b1", rawDoc(map[string]string{"users": `["u1","u2"]`}))
	store.Set(ctx, BoardsCollection, "b2", rawDoc(map[string]string{"users": `["u3"]`}))
	store.Set(ctx, BoardsCollection, "b3", rawDoc(map[string]string{"name": `"no users field"`}))

	got, err := store.QueryByArrayMembership(ctx, BoardsCollection, "users", "u2")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if _, ok := got["b1"]; !ok {
		t.Fatalf("wrong match: %v", got)
	}
}
