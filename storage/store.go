package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bytedance/sonic"
)

// Collection names used by the board client.
const (
	BoardsCollection = "boards"
	UsersCollection  = "users"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("storage: document not found")

// Document is one stored record: top-level field name to its JSON-encoded
// value. Keeping fields individually encoded lets every backend implement
// merge writes at field granularity.
type Document map[string]json.RawMessage

// DocumentStore is the persistence capability the board client runs against.
//
// Set writes with merge semantics: fields present in the payload overwrite
// their stored value, absent fields are left untouched. Update is the
// partial-write form; a nil value deletes that field from the document.
// Neither carries a concurrency token, the store applies writes in receipt
// order, last write wins.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	Update(ctx context.Context, collection, id string, fields Document) error
	Delete(ctx context.Context, collection, id string) error
	Add(ctx context.Context, collection string, doc Document) (string, error)
	QueryByField(ctx context.Context, collection, field, value string) (map[string]Document, error)
	QueryByArrayMembership(ctx context.Context, collection, field, member string) (map[string]Document, error)
}

// Encode flattens a struct into a Document, one entry per top-level field.
func Encode(v any) (Document, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Decode reassembles a Document into the given struct pointer.
func Decode(doc Document, v any) error {
	data, err := sonic.Marshal(doc)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, v)
}

// Field encodes a single value for use in a partial Update.
func Field(v any) (json.RawMessage, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// fieldString decodes a field holding a JSON string; non-strings report false.
func fieldString(raw json.RawMessage) (string, bool) {
	var s string
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// fieldStrings decodes a field holding a JSON string array.
func fieldStrings(raw json.RawMessage) ([]string, bool) {
	var ss []string
	if err := sonic.Unmarshal(raw, &ss); err != nil {
		return nil, false
	}
	return ss, true
}

func matchField(doc Document, field, value string) bool {
	raw, ok := doc[field]
	if !ok {
		return false
	}
	s, ok := fieldString(raw)
	return ok && s == value
}

func matchMembership(doc Document, field, member string) bool {
	raw, ok := doc[field]
	if !ok {
		return false
	}
	ss, ok := fieldStrings(raw)
	if !ok {
		return false
	}
	for _, s := range ss {
		if s == member {
			return true
		}
	}
	return false
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
