// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tomtom215/coffeechat/internal/metrics"
)

// MongoSessionStore keeps sessions in a collection. A TTL index on
// expiresAt lets the server remove them.
type MongoSessionStore struct {
	coll *mongo.Collection
}

// NewMongoSessionStore wraps coll.
func NewMongoSessionStore(coll *mongo.Collection) *MongoSessionStore {
	return &MongoSessionStore{coll: coll}
}

// EnsureIndexes creates the TTL index. It is idempotent.
func (s *MongoSessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	return nil
}

// Get implements SessionStore.
func (s *MongoSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	done := metrics.ObserveExternalCall("mongo", "session.find")
	var session Session
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, ErrSessionNotFound
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	// The TTL monitor runs about once a minute.
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// Save implements SessionStore.
func (s *MongoSessionStore) Save(ctx context.Context, session *Session) error {
	done := metrics.ObserveExternalCall("mongo", "session.replace")
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: session.ID}},
		session,
		options.Replace().SetUpsert(true),
	)
	done(err)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete implements SessionStore.
func (s *MongoSessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpired implements SessionStore.
func (s *MongoSessionStore) CleanupExpired(ctx context.Context) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lt", Value: time.Now().UTC()}}}})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return int(res.DeletedCount), nil
}
