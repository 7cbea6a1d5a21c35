package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRecord struct {
	seq       int64
	data      map[string]any
	createdAt time.Time
}

// MemoryStore keeps documents in process. It backs local development
// (DOCSTORE_DRIVER=memory) and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	seq         int64
	collections map[string]map[string]*memoryRecord
	hub         *changeHub
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*memoryRecord),
		hub:         newChangeHub(),
		now:         time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return rec.document(id), nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	type row struct {
		doc Document
		seq int64
	}
	var rows []row
	for id, rec := range s.collections[collection] {
		if !rec.matches(q.Filters) {
			continue
		}
		rows = append(rows, row{doc: rec.document(id), seq: rec.seq})
	}
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var cmp int
		if q.OrderBy == "" || q.OrderBy == CreatedAt {
			cmp = a.doc.CreatedAt.Compare(b.doc.CreatedAt)
		} else {
			cmp = compareValues(a.doc.Data[q.OrderBy], b.doc.Data[q.OrderBy])
		}
		if cmp == 0 {
			cmp = compareInt(a.seq, b.seq)
		}
		if q.Descending {
			return cmp > 0
		}
		return cmp < 0
	})

	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.doc)
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	copied, err := cloneData(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*memoryRecord)
	}
	rec, ok := s.collections[collection][id]
	if ok {
		rec.data = copied
	} else {
		s.seq++
		s.collections[collection][id] = &memoryRecord{seq: s.seq, data: copied, createdAt: s.now()}
	}
	s.mu.Unlock()

	s.hub.notify(collection)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	copied, err := cloneData(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	rec, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range copied {
		rec.data[k] = v
	}
	s.mu.Unlock()

	s.hub.notify(collection)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.hub.notify(collection)
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	changes, release := s.hub.watch(collection)
	load := func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, collection, q)
	}
	return newSubscription(ctx, load, changes, release), nil
}

// Watchers reports how many live queries are open on a collection.
func (s *MemoryStore) Watchers(collection string) int {
	return s.hub.watchers(collection)
}

func (r *memoryRecord) document(id string) Document {
	data, _ := cloneData(r.data)
	return Document{ID: id, Data: data, CreatedAt: r.createdAt}
}

func (r *memoryRecord) matches(filters []Filter) bool {
	for _, f := range filters {
		if !jsonEqual(r.data[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// cloneData round-trips through JSON so stored values have the same shape
// the SQL and Mongo backends return.
func cloneData(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func jsonEqual(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ra) == string(rb)
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
