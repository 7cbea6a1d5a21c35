package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Add(ctx, "menuItems", map[string]any{"name": "Burger", "price": 9.0, "restaurantId": "r1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.Get(ctx, "menuItems", id)
	require.NoError(t, err)
	assert.Equal(t, "Burger", doc.Data["name"])
	assert.Equal(t, 9.0, doc.Data["price"])
	assert.False(t, doc.CreatedAt.IsZero())

	require.NoError(t, store.Update(ctx, "menuItems", id, map[string]any{"price": 11.5}))
	doc, err = store.Get(ctx, "menuItems", id)
	require.NoError(t, err)
	assert.Equal(t, 11.5, doc.Data["price"])
	assert.Equal(t, "Burger", doc.Data["name"])

	require.NoError(t, store.Delete(ctx, "menuItems", id))
	_, err = store.Get(ctx, "menuItems", id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "menuItems", id), ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, "menuItems", id, map[string]any{"x": 1}), ErrNotFound)
}

func TestMemoryStore_SetKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }

	require.NoError(t, store.Set(ctx, "restaurants", "r1", map[string]any{"name": "Old"}))
	store.now = func() time.Time { return first.Add(time.Hour) }
	require.NoError(t, store.Set(ctx, "restaurants", "r1", map[string]any{"name": "New"}))

	doc, err := store.Get(ctx, "restaurants", "r1")
	require.NoError(t, err)
	assert.Equal(t, "New", doc.Data["name"])
	assert.Equal(t, first, doc.CreatedAt)
}

func TestMemoryStore_QueryFiltersAndOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, item := range []map[string]any{
		{"name": "Soup", "restaurantId": "r1", "available": true},
		{"name": "Burger", "restaurantId": "r1", "available": false},
		{"name": "Salad", "restaurantId": "r2", "available": true},
		{"name": "Apple Pie", "restaurantId": "r1", "available": true},
	} {
		_, err := store.Add(ctx, "menuItems", item)
		require.NoError(t, err)
	}

	docs, err := store.Query(ctx, "menuItems", Query{
		Filters:    []Filter{Where("restaurantId", "r1")},
		OrderBy:    CreatedAt,
		Descending: true,
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "Apple Pie", docs[0].Data["name"])
	assert.Equal(t, "Soup", docs[2].Data["name"])

	docs, err = store.Query(ctx, "menuItems", Query{
		Filters: []Filter{Where("restaurantId", "r1"), Where("available", true)},
		OrderBy: "name",
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Apple Pie", docs[0].Data["name"])
	assert.Equal(t, "Soup", docs[1].Data["name"])

	docs, err = store.Query(ctx, "menuItems", Query{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = store.Query(ctx, "empty", Query{})
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = store.Query(ctx, "menuItems", Query{Filters: []Filter{Where("data->>'x'", 1)}})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestMemoryStore_SubscribeDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collection := "restaurants/r1/orders"

	_, err := store.Add(ctx, collection, map[string]any{"status": "pending"})
	require.NoError(t, err)

	sub, err := store.Subscribe(ctx, collection, Query{OrderBy: CreatedAt, Descending: true})
	require.NoError(t, err)
	defer sub.Close()

	first := nextSnapshot(t, sub)
	assert.Len(t, first, 1)

	id, err := store.Add(ctx, collection, map[string]any{"status": "pending"})
	require.NoError(t, err)

	second := nextSnapshot(t, sub)
	require.Len(t, second, 2)
	assert.Equal(t, id, second[0].ID)

	require.NoError(t, store.Update(ctx, collection, id, map[string]any{"status": "active"}))
	third := nextSnapshot(t, sub)
	require.Len(t, third, 2)
	assert.Equal(t, "active", third[0].Data["status"])
}

func TestMemoryStore_CloseReleasesLiveQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collection := "users/c1/orders"

	sub, err := store.Subscribe(ctx, collection, Query{})
	require.NoError(t, err)
	nextSnapshot(t, sub)
	assert.Equal(t, 1, store.Watchers(collection))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, store.Watchers(collection))
	assert.NoError(t, sub.Err())

	_, err = store.Add(ctx, collection, map[string]any{"status": "pending"})
	require.NoError(t, err)
	_, open := <-sub.Updates()
	assert.False(t, open)
}

func TestMemoryStore_ContextCancelEndsSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore()

	sub, err := store.Subscribe(ctx, "orders", Query{})
	require.NoError(t, err)
	nextSnapshot(t, sub)

	cancel()
	assert.Eventually(t, func() bool { return store.Watchers("orders") == 0 }, time.Second, 10*time.Millisecond)
	assert.NoError(t, sub.Err())
}

func TestSubscription_LoadErrorIsTerminal(t *testing.T) {
	changes := make(chan struct{}, 1)
	released := make(chan struct{})
	calls := 0
	load := func(ctx context.Context) ([]Document, error) {
		calls++
		if calls > 1 {
			return nil, assert.AnError
		}
		return []Document{{ID: "a"}}, nil
	}

	sub := newSubscription(context.Background(), load, changes, func() { close(released) })
	nextSnapshot(t, sub)
	changes <- struct{}{}

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("live query was not released")
	}
	_, open := <-sub.Updates()
	assert.False(t, open)
	assert.ErrorIs(t, sub.Err(), assert.AnError)
}

func TestSubscription_ClosedSourceIsTerminal(t *testing.T) {
	changes := make(chan struct{})
	load := func(ctx context.Context) ([]Document, error) { return nil, nil }

	sub := newSubscription(context.Background(), load, changes, func() {})
	nextSnapshot(t, sub)
	close(changes)

	_, open := <-sub.Updates()
	assert.False(t, open)
	assert.ErrorIs(t, sub.Err(), ErrSubscriptionLost)
}

func nextSnapshot(t *testing.T, sub *Subscription) []Document {
	t.Helper()
	select {
	case docs, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed: %v", sub.Err())
		return docs
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
		return nil
	}
}
