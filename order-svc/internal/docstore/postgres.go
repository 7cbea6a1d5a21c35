package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// NotifyChannel is the LISTEN/NOTIFY channel carrying collection names of
// written documents.
const NotifyChannel = "doc_changes"

// Notifier is the part of *pq.Listener the store consumes.
type Notifier interface {
	NotificationChannel() <-chan *pq.Notification
}

// PostgresStore keeps every collection in a single JSONB table. Live
// queries are driven by NOTIFY on writes, so every replica of the service
// sees the same changes.
type PostgresStore struct {
	DB        *sql.DB
	Log       *logrus.Entry
	hub       *changeHub
	listening atomic.Bool
}

func NewPostgresStore(db *sql.DB, log *logrus.Entry) *PostgresStore {
	return &PostgresStore{DB: db, Log: log, hub: newChangeHub()}
}

// NewListener opens the pq listener for NotifyChannel.
func NewListener(dsn string, onEvent func(pq.ListenerEventType, error)) (*pq.Listener, error) {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, onEvent)
	if err := listener.Listen(NotifyChannel); err != nil {
		listener.Close()
		return nil, err
	}
	return listener, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`,
		"CREATE INDEX IF NOT EXISTS documents_collection_created_idx ON documents (collection, created_at)",
	}
	for _, stmt := range statements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Listen forwards notifications into local live queries until ctx ends.
// A nil notification means the listener reconnected and may have missed
// events, so every live query reloads.
func (s *PostgresStore) Listen(ctx context.Context, n Notifier) {
	s.listening.Store(true)
	defer s.listening.Store(false)

	for {
		select {
		case <-ctx.Done():
			return
		case notification := <-n.NotificationChannel():
			if notification == nil {
				s.hub.notifyAll()
				continue
			}
			s.hub.notify(notification.Extra)
		}
	}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var (
		raw []byte
		doc = Document{ID: id}
	)
	err := s.DB.QueryRowContext(ctx,
		"SELECT data, created_at FROM documents WHERE collection = $1 AND id = $2",
		collection, id).Scan(&raw, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	args := []any{collection}
	sb.WriteString("SELECT id, data, created_at FROM documents WHERE collection = $1")
	for _, f := range q.Filters {
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		args = append(args, f.Field, string(value))
		sb.WriteString(" AND data->$" + strconv.Itoa(len(args)-1) + " = $" + strconv.Itoa(len(args)) + "::jsonb")
	}

	direction := " ASC"
	if q.Descending {
		direction = " DESC"
	}
	if q.OrderBy == "" || q.OrderBy == CreatedAt {
		sb.WriteString(" ORDER BY created_at" + direction)
	} else {
		args = append(args, q.OrderBy)
		sb.WriteString(" ORDER BY data->$" + strconv.Itoa(len(args)) + direction + ", created_at" + direction)
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}

	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			doc Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := s.DB.ExecContext(ctx,
		"INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)",
		collection, id, string(raw)); err != nil {
		return "", err
	}
	s.publish(ctx, collection)
	return id, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		collection, id, string(raw)); err != nil {
		return err
	}
	s.publish(ctx, collection)
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	result, err := s.DB.ExecContext(ctx,
		"UPDATE documents SET data = data || $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2",
		collection, id, string(raw))
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	s.publish(ctx, collection)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.DB.ExecContext(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", collection, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	s.publish(ctx, collection)
	return nil
}

func (s *PostgresStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	changes, release := s.hub.watch(collection)
	load := func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, collection, q)
	}
	return newSubscription(ctx, load, changes, release), nil
}

// publish tells live queries about a committed write. With a listener
// running the signal comes back through NOTIFY; without one, or when NOTIFY
// fails, only this process is told.
func (s *PostgresStore) publish(ctx context.Context, collection string) {
	if s.listening.Load() {
		_, err := s.DB.ExecContext(ctx, "SELECT pg_notify($1, $2)", NotifyChannel, collection)
		if err == nil {
			return
		}
		s.Log.WithError(err).WithField("collection", collection).Warn("document change notification failed")
	}
	s.hub.notify(collection)
}
