package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Tables is a DocumentStore backed by a single Azure table. Each document is
// one entity: PartitionKey is the collection, RowKey the document id, and
// every top-level field is stored as its own property holding JSON text.
// Storing fields as separate properties is what makes merge-mode upserts
// behave as field-level merge writes.
type Tables struct {
	client *aztables.Client
}

// NewTables creates a Tables store from the given connection string.
func NewTables(connStr, table string) (*Tables, error) {
	clientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &clientOptions)
	if err != nil {
		return nil, err
	}
	return &Tables{client: svc.NewClient(table)}, nil
}

func isTableNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

func (t *Tables) Get(ctx context.Context, collection, id string) (Document, error) {
	resp, err := t.client.GetEntity(ctx, collection, id, nil)
	if err != nil {
		if isTableNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeEntity(resp.Value)
}

func (t *Tables) Set(ctx context.Context, collection, id string, doc Document) error {
	data, err := encodeEntity(collection, id, doc)
	if err != nil {
		return err
	}
	_, err = t.client.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeMerge})
	return err
}

func (t *Tables) Update(ctx context.Context, collection, id string, fields Document) error {
	var deletions []string
	merge := make(Document, len(fields))
	for k, v := range fields {
		if v == nil {
			deletions = append(deletions, k)
			continue
		}
		merge[k] = v
	}
	if len(deletions) == 0 {
		return t.Set(ctx, collection, id, merge)
	}

	// Merge-mode upserts cannot remove a property; rewrite the whole entity.
	current, err := t.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	for _, k := range deletions {
		delete(current, k)
	}
	for k, v := range merge {
		current[k] = v
	}
	data, err := encodeEntity(collection, id, current)
	if err != nil {
		return err
	}
	_, err = t.client.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func (t *Tables) Delete(ctx context.Context, collection, id string) error {
	_, err := t.client.DeleteEntity(ctx, collection, id, nil)
	if err != nil && isTableNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (t *Tables) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	if err := t.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (t *Tables) QueryByField(ctx context.Context, collection, field, value string) (map[string]Document, error) {
	return t.query(ctx, collection, func(doc Document) bool {
		return matchField(doc, field, value)
	})
}

func (t *Tables) QueryByArrayMembership(ctx context.Context, collection, field, member string) (map[string]Document, error) {
	return t.query(ctx, collection, func(doc Document) bool {
		return matchMembership(doc, field, member)
	})
}

// query scans one partition and filters client-side. Table storage can only
// filter on scalar properties and these fields hold JSON text.
func (t *Tables) query(ctx context.Context, collection string, keep func(Document) bool) (map[string]Document, error) {
	filter := "PartitionKey eq '" + collection + "'"
	pager := t.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	out := map[string]Document{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var probe struct {
				RowKey string `json:"RowKey"`
			}
			if err := json.Unmarshal(raw, &probe); err != nil {
				return nil, err
			}
			doc, err := decodeEntity(raw)
			if err != nil {
				return nil, err
			}
			if keep(doc) {
				out[probe.RowKey] = doc
			}
		}
	}
	return out, nil
}

func encodeEntity(collection, id string, doc Document) ([]byte, error) {
	ent := map[string]any{
		"PartitionKey": collection,
		"RowKey":       id,
	}
	for k, v := range doc {
		ent[k] = string(v)
	}
	return sonic.Marshal(ent)
}

func decodeEntity(data []byte) (Document, error) {
	var props map[string]json.RawMessage
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	doc := Document{}
	for k, raw := range props {
		if isSystemProperty(k) {
			continue
		}
		text, ok := fieldString(raw)
		if !ok {
			continue
		}
		doc[k] = json.RawMessage(text)
	}
	return doc, nil
}

func isSystemProperty(name string) bool {
	switch name {
	case "PartitionKey", "RowKey", "Timestamp":
		return true
	}
	return strings.HasPrefix(name, "odata.") || strings.Contains(name, "@odata")
}
