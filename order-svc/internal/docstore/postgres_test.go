package docstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, logrus.NewEntry(logrus.StandardLogger())), mock
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data, created_at FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("restaurants", "r1").
		WillReturnRows(sqlmock.NewRows([]string{"data", "created_at"}).
			AddRow([]byte(`{"name":"Luigi's","openingHours":{"mon":"9-17"}}`), created))

	doc, err := store.Get(context.Background(), "restaurants", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", doc.ID)
	assert.Equal(t, "Luigi's", doc.Data["name"])
	assert.Equal(t, created, doc.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT data, created_at FROM documents").
		WithArgs("restaurants", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "restaurants", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_QueryBuildsJSONBFilters(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, data, created_at FROM documents WHERE collection = $1 AND data->$2 = $3::jsonb AND data->$4 = $5::jsonb ORDER BY created_at DESC LIMIT 20")).
		WithArgs("menuItems", "restaurantId", `"r1"`, "available", "true").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "created_at"}).
			AddRow("m2", []byte(`{"name":"Soup"}`), created.Add(time.Minute)).
			AddRow("m1", []byte(`{"name":"Burger"}`), created))

	docs, err := store.Query(context.Background(), "menuItems", Query{
		Filters:    []Filter{Where("restaurantId", "r1"), Where("available", true)},
		OrderBy:    CreatedAt,
		Descending: true,
		Limit:      20,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "m2", docs[0].ID)
	assert.Equal(t, "Burger", docs[1].Data["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryOrderByField(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, data, created_at FROM documents WHERE collection = $1 ORDER BY data->$2 ASC, created_at ASC")).
		WithArgs("categories", "name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "created_at"}))

	docs, err := store.Query(context.Background(), "categories", Query{OrderBy: "name"})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryRejectsBadField(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.Query(context.Background(), "menuItems", Query{OrderBy: "name; DROP TABLE documents"})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestPostgresStore_Add(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)")).
		WithArgs("categories", sqlmock.AnyArg(), `{"name":"Drinks"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.Add(context.Background(), "categories", map[string]any{"name": "Drinks"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMergesFields(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET data = data || $3::jsonb")).
		WithArgs("restaurants/r1/orders", "o1", `{"status":"active"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Update(context.Background(), "restaurants/r1/orders", "o1", map[string]any{"status": "active"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMissingDocument(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs("users/c1/orders", "o1", `{"status":"active"}`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(context.Background(), "users/c1/orders", "o1", map[string]any{"status": "active"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_DeleteMissingDocument(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("categories", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.Delete(context.Background(), "categories", "c1"), ErrNotFound)
}

type fakeNotifier struct {
	ch chan *pq.Notification
}

func (f fakeNotifier) NotificationChannel() <-chan *pq.Notification {
	return f.ch
}

func TestPostgresStore_NotificationsDriveSubscriptions(t *testing.T) {
	store, mock := newMockStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := fakeNotifier{ch: make(chan *pq.Notification)}
	go store.Listen(ctx, notifier)

	query := regexp.QuoteMeta("SELECT id, data, created_at FROM documents WHERE collection = $1 ORDER BY created_at DESC")
	mock.ExpectQuery(query).WithArgs("restaurants/r1/orders").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "created_at"}))
	mock.ExpectQuery(query).WithArgs("restaurants/r1/orders").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "created_at"}).
			AddRow("o1", []byte(`{"status":"pending"}`), time.Now()))

	sub, err := store.Subscribe(ctx, "restaurants/r1/orders", Query{OrderBy: CreatedAt, Descending: true})
	require.NoError(t, err)
	defer sub.Close()

	assert.Empty(t, nextSnapshot(t, sub))

	notifier.ch <- &pq.Notification{Channel: NotifyChannel, Extra: "restaurants/r1/orders"}
	docs := nextSnapshot(t, sub)
	require.Len(t, docs, 1)
	assert.Equal(t, "o1", docs[0].ID)
}

func TestPostgresStore_FailedNotifyFallsBackToLocalSubscribers(t *testing.T) {
	store, mock := newMockStore(t)
	store.listening.Store(true)

	changes, release := store.hub.watch("restaurants/r1/orders")
	defer release()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET data = data || $3::jsonb")).
		WithArgs("restaurants/r1/orders", "o1", `{"status":"ready"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_notify($1, $2)")).
		WithArgs(NotifyChannel, "restaurants/r1/orders").
		WillReturnError(sql.ErrConnDone)

	err := store.Update(context.Background(), "restaurants/r1/orders", "o1", map[string]any{"status": "ready"})
	require.NoError(t, err)

	select {
	case <-changes:
	default:
		t.Fatal("local subscriber was not told about the write")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
