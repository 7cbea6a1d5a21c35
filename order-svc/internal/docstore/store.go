// Package docstore is the schema-less document store behind every
// collection: point reads, filtered queries, writes and live subscriptions
// that push full snapshots.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrInvalidField     = errors.New("invalid field name")
	ErrSubscriptionLost = errors.New("live query closed by the store")
)

// CreatedAt orders by the store-generated creation timestamp.
const CreatedAt = "createdAt"

type Document struct {
	ID        string
	Data      map[string]any
	CreatedAt time.Time
}

type Filter struct {
	Field string
	Value any
}

func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error)
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (q Query) validate() error {
	for _, f := range q.Filters {
		if !fieldPattern.MatchString(f.Field) {
			return fmt.Errorf("%w: %q", ErrInvalidField, f.Field)
		}
	}
	if q.OrderBy != "" && !fieldPattern.MatchString(q.OrderBy) {
		return fmt.Errorf("%w: %q", ErrInvalidField, q.OrderBy)
	}
	return nil
}

// Encode turns a JSON-tagged struct into document data, dropping the named
// keys (typically the id and timestamps the store owns).
func Encode(v any, omit ...string) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	for _, key := range omit {
		delete(data, key)
	}
	return data, nil
}

// Decode fills v from the document data.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
