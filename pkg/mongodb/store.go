// Package mongodb wraps the official Go driver with the operations the
// agent's tools, indexers, and vector retrieval need.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/inferyx/queryagent/pkg/config"
)

// Store is a connected handle on the target database
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	config *config.MongoConfig
}

// Connect creates a client for the configured deployment. The driver dials
// lazily; use Ping to force a round trip.
func Connect(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mongo config: %w", err)
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(time.Duration(cfg.ServerSelectionTimeout) * time.Second).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
		config: cfg,
	}, nil
}

// DatabaseName returns the name of the target database
func (s *Store) DatabaseName() string {
	return s.db.Name()
}

// Collection returns a handle on a collection in the target database
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ListCollectionNames returns the names of all collections in the database
func (s *Store) ListCollectionNames(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// SampleDocuments reads up to limit documents from a collection, preserving
// field order within each document.
func (s *Store) SampleDocuments(ctx context.Context, collection string, limit int) ([]bson.D, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode samples from %s: %w", collection, err)
	}
	return docs, nil
}

// Find runs a filtered query with optional projection and a result limit
func (s *Store) Find(ctx context.Context, collection string, filter, projection map[string]interface{}, limit int) ([]bson.M, error) {
	if filter == nil {
		filter = map[string]interface{}{}
	}

	opts := options.Find().SetLimit(int64(limit))
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find on %s failed: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode find results from %s: %w", collection, err)
	}
	return docs, nil
}

// Aggregate runs an aggregation pipeline
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline []interface{}) ([]bson.M, error) {
	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregation on %s failed: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation results from %s: %w", collection, err)
	}
	return docs, nil
}

// InsertMany writes a batch of documents to a collection
func (s *Store) InsertMany(ctx context.Context, collection string, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := s.db.Collection(collection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert into %s failed: %w", collection, err)
	}
	return nil
}

// ReplaceOne upserts a single document matched by filter
func (s *Store) ReplaceOne(ctx context.Context, collection string, filter map[string]interface{}, doc interface{}) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.db.Collection(collection).ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("replace in %s failed: %w", collection, err)
	}
	return nil
}

// DeleteAll removes every document from a collection. Index rebuilds call
// this before re-inserting.
func (s *Store) DeleteAll(ctx context.Context, collection string) error {
	if _, err := s.db.Collection(collection).DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("delete from %s failed: %w", collection, err)
	}
	return nil
}

// CreateVectorSearchIndex creates an Atlas Vector Search index on a
// collection. Creation is asynchronous on the Atlas side.
func (s *Store) CreateVectorSearchIndex(ctx context.Context, collection, indexName string, definition interface{}) error {
	model := mongo.SearchIndexModel{
		Definition: definition,
		Options:    options.SearchIndexes().SetName(indexName).SetType("vectorSearch"),
	}
	if _, err := s.db.Collection(collection).SearchIndexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create search index %s on %s: %w", indexName, collection, err)
	}
	return nil
}

// Ping verifies the deployment is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

// Close disconnects from the deployment
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
