// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package docstore persists posts and comments in MongoDB.
//
// MongoDB is the source of truth for posts; the key-value table is a
// mirror written after the document insert.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/tomtom215/coffeechat/internal/metrics"
)

// Collection names.
const (
	PostCollection    = "post"
	CommentCollection = "comment"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned for malformed ObjectID hex strings.
	ErrInvalidID = errors.New("invalid id")
)

// ParseID converts a hex string into an ObjectID.
func ParseID(hex string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetConnectTimeout(timeout)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// Store is the document store gateway.
type Store struct {
	db       *mongo.Database
	posts    *mongo.Collection
	comments *mongo.Collection
}

// New creates a Store over db.
func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		posts:    db.Collection(PostCollection),
		comments: db.Collection(CommentCollection),
	}
}

// Database returns the underlying database, shared with the session store.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	done := metrics.ObserveExternalCall("mongo", "ping")
	err := s.db.Client().Ping(ctx, readpref.Primary())
	done(err)
	return err
}

// EnsureIndexes creates the indexes the queries rely on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create post index: %w", err)
	}
	if _, err := s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create comment index: %w", err)
	}
	return nil
}
