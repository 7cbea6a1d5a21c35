package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps each collection path onto a Mongo collection
// ("restaurants/r1/orders" -> "restaurants.r1.orders"). Documents are
// stored as {_id, data, created_at}; live queries use change streams.
type MongoStore struct {
	DB  *mongo.Database
	now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{DB: db, now: time.Now}
}

type mongoRecord struct {
	ID        string    `bson:"_id"`
	Data      bson.Raw  `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r mongoRecord) document() (Document, error) {
	doc := Document{ID: r.ID, CreatedAt: r.CreatedAt, Data: map[string]any{}}
	if len(r.Data) == 0 {
		return doc, nil
	}
	ext, err := bson.MarshalExtJSON(r.Data, false, false)
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(ext, &doc.Data); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func mongoCollectionName(collection string) string {
	return strings.ReplaceAll(collection, "/", ".")
}

func (s *MongoStore) coll(collection string) *mongo.Collection {
	return s.DB.Collection(mongoCollectionName(collection))
}

func mongoFilter(q Query) bson.D {
	filter := bson.D{}
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: "data." + f.Field, Value: f.Value})
	}
	return filter
}

func mongoFindOptions(q Query) *options.FindOptions {
	direction := 1
	if q.Descending {
		direction = -1
	}
	sort := bson.D{{Key: "created_at", Value: direction}}
	if q.OrderBy != "" && q.OrderBy != CreatedAt {
		sort = bson.D{{Key: "data." + q.OrderBy, Value: direction}, {Key: "created_at", Value: direction}}
	}
	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var rec mongoRecord
	err := s.coll(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return rec.document()
}

func (s *MongoStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	cursor, err := s.coll(collection).Find(ctx, mongoFilter(q), mongoFindOptions(q))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []Document{}
	for cursor.Next(ctx) {
		var rec mongoRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, err
		}
		doc, err := rec.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, cursor.Err()
}

func (s *MongoStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	_, err := s.coll(collection).InsertOne(ctx, bson.M{
		"_id":        id,
		"data":       data,
		"created_at": s.now(),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := s.coll(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":         bson.M{"data": data},
			"$setOnInsert": bson.M{"created_at": s.now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	set := bson.M{}
	for k, v := range fields {
		set["data."+k] = v
	}
	result, err := s.coll(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.coll(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	stream, err := s.coll(collection).Watch(watchCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, err
	}

	changes := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(changes)
		defer stream.Close(context.Background())
		for stream.Next(watchCtx) {
			signal(changes)
		}
	}()

	release := func() {
		cancel()
		<-done
	}
	load := func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, collection, q)
	}
	return newSubscription(ctx, load, changes, release), nil
}
