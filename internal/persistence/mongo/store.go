// Package mongo provides a MongoDB-backed key-value store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/fittrack/internal/observability"
)

const collectionName = "kv_store"

type entry struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store keeps one document per key in the kv_store collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Open connects to uri and selects dbName.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, collection: client.Database(dbName).Collection(collectionName)}, nil
}

// Get implements persistence.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc entry
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		observability.RecordStoreError("mongo", "get")
		return nil, false, err
	}
	return doc.Value, true, nil
}

// Set implements persistence.Store.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	doc := entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		observability.RecordStoreError("mongo", "set")
	}
	return err
}

// Remove implements persistence.Store.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		observability.RecordStoreError("mongo", "remove")
		return err
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
