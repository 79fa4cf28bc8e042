package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is a Store backed by a MongoDB collection, one document per key.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// OpenMongo connects to uri and uses database.collection, defaulting to flowcanvas.kv.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("mongo store requires a dsn")
	}
	if database == "" {
		database = "flowcanvas"
	}
	if collection == "" {
		collection = "kv"
	}

	clientOptions := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(10 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (m *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return doc.Value, nil
}

func (m *Mongo) Set(ctx context.Context, key string, value []byte) error {
	doc := mongoDoc{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, key string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (m *Mongo) Query(ctx context.Context, prefix string, limit int) ([]Entry, error) {
	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", prefix, err)
	}
	defer cursor.Close(ctx)

	entries := make([]Entry, 0)
	for cursor.Next(ctx) {
		var doc mongoDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: doc.Key, Value: doc.Value})
	}
	return entries, cursor.Err()
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}
