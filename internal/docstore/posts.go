// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

// CreatePost inserts p and sets its ID. CreatedAt defaults to now.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}

	done := metrics.ObserveExternalCall("mongo", "post.insert")
	_, err := s.posts.InsertOne(ctx, p)
	done(err)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetPost returns the post with id or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id bson.ObjectID) (*models.Post, error) {
	done := metrics.ObserveExternalCall("mongo", "post.find")
	var p models.Post
	err := s.posts.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, ErrNotFound
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find post %s: %w", id.Hex(), err)
	}
	return &p, nil
}

// PostUpdate lists the fields an edit may change. A nil ImageURL keeps the
// current image.
type PostUpdate struct {
	Title    string
	Content  string
	ImageURL *string
}

func (u PostUpdate) document(now time.Time) bson.D {
	set := bson.D{
		{Key: "title", Value: u.Title},
		{Key: "content", Value: u.Content},
		{Key: "updatedAt", Value: now},
	}
	if u.ImageURL != nil {
		set = append(set, bson.E{Key: "imageUrl", Value: *u.ImageURL})
	}
	return bson.D{{Key: "$set", Value: set}}
}

// UpdatePost applies u and returns the updated post.
func (s *Store) UpdatePost(ctx context.Context, id bson.ObjectID, u PostUpdate) (*models.Post, error) {
	done := metrics.ObserveExternalCall("mongo", "post.update")
	res, err := s.posts.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, u.document(time.Now().UTC()))
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to update post %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes the post. Its comments are left in place.
func (s *Store) DeletePost(ctx context.Context, id bson.ObjectID) error {
	done := metrics.ObserveExternalCall("mongo", "post.delete")
	res, err := s.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	done(err)
	if err != nil {
		return fmt.Errorf("failed to delete post %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// listPipeline joins comments to count them, newest post first.
func listPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         CommentCollection,
			"localField":   "_id",
			"foreignField": "parentId",
			"as":           "comments",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"commentCount": bson.M{"$size": "$comments"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$project", Value: bson.M{"comments": 0}}},
	}
}

// ListPosts returns every post with its comment count, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]models.PostSummary, error) {
	done := metrics.ObserveExternalCall("mongo", "post.aggregate")
	cursor, err := s.posts.Aggregate(ctx, listPipeline())
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := make([]models.PostSummary, 0)
	err = cursor.All(ctx, &posts)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}
