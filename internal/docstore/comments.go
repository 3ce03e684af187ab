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
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

// CreateComment inserts c and sets its ID. The parent post is not checked.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}

	done := metrics.ObserveExternalCall("mongo", "comment.insert")
	_, err := s.comments.InsertOne(ctx, c)
	done(err)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListComments returns the comments of a post, oldest first.
func (s *Store) ListComments(ctx context.Context, postID bson.ObjectID) ([]models.Comment, error) {
	done := metrics.ObserveExternalCall("mongo", "comment.find")
	cursor, err := s.comments.Find(ctx,
		bson.D{{Key: "parentId", Value: postID}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to find comments of %s: %w", postID.Hex(), err)
	}
	defer cursor.Close(ctx)

	comments := make([]models.Comment, 0)
	err = cursor.All(ctx, &comments)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

// GetComment returns one comment or ErrNotFound.
func (s *Store) GetComment(ctx context.Context, id bson.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := s.comments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find comment %s: %w", id.Hex(), err)
	}
	return &c, nil
}

// ownedBy matches a comment by id and writer, so that writers can only
// change their own comments.
func ownedBy(id bson.ObjectID, writerID string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "writerId", Value: writerID}}
}

// UpdateComment replaces the content of a comment written by writerID.
// A missing comment and a foreign comment both yield ErrNotFound.
func (s *Store) UpdateComment(ctx context.Context, id bson.ObjectID, writerID, content string) error {
	done := metrics.ObserveExternalCall("mongo", "comment.update")
	res, err := s.comments.UpdateOne(ctx, ownedBy(id, writerID),
		bson.D{{Key: "$set", Value: bson.D{{Key: "content", Value: content}}}})
	done(err)
	if err != nil {
		return fmt.Errorf("failed to update comment %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment removes a comment written by writerID.
func (s *Store) DeleteComment(ctx context.Context, id bson.ObjectID, writerID string) error {
	done := metrics.ObserveExternalCall("mongo", "comment.delete")
	res, err := s.comments.DeleteOne(ctx, ownedBy(id, writerID))
	done(err)
	if err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCommentAny replaces the content of any comment. Used for moderators.
func (s *Store) UpdateCommentAny(ctx context.Context, id bson.ObjectID, content string) error {
	res, err := s.comments.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "content", Value: content}}}})
	if err != nil {
		return fmt.Errorf("failed to update comment %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCommentAny removes a comment regardless of its writer.
func (s *Store) DeleteCommentAny(ctx context.Context, id bson.ObjectID) error {
	res, err := s.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
