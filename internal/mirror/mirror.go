// Package mirror duplicates index writes into MongoDB for redundancy. Writes
// here are best-effort: a mirror failure never fails the row that caused it.
package mirror

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store mirrors documents into one MongoDB database, one collection per index.
type Store struct {
	db      *mongo.Database
	timeout time.Duration
}

// New wraps an injected database handle.
func New(db *mongo.Database, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

// Connect dials MongoDB and pings it once so a bad URI fails at startup
// instead of on the first mirrored write.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return New(client.Database(database), timeout), nil
}

// Insert mirrors a freshly created index document. The index identity is
// kept on the es_id field so later partial updates can find it.
func (s *Store) Insert(ctx context.Context, collection, esID string, fields map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := bson.M{"es_id": esID}
	for k, v := range fields {
		doc[k] = v
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mirror insert into %s: %w", collection, err)
	}
	return nil
}

// Update mirrors a partial update onto the document keyed by es_id. Upsert
// keeps the mirror converging even when an earlier insert was lost.
func (s *Store) Update(ctx context.Context, collection, esID string, fields map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"es_id": esID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mirror update in %s: %w", collection, err)
	}
	return nil
}
