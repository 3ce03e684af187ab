// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Post is a user post with one image attachment.
//
// ID is the document store identity; PostID is a UUID v4 shared with the
// key-value table where it is the sort key.
type Post struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    string        `bson:"postId" json:"postId"`
	Title     string        `bson:"title" json:"title"`
	Content   string        `bson:"content" json:"content"`
	ImageURL  string        `bson:"imageUrl" json:"imageUrl"`
	User      string        `bson:"user" json:"user"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time    `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// PostSummary is a Post as returned by the list aggregation.
type PostSummary struct {
	Post         `bson:",inline"`
	CommentCount int `bson:"commentCount" json:"commentCount"`
}

// PostRecord is the key-value item written alongside every Post.
// Timestamp is RFC3339.
type PostRecord struct {
	Partition  string `dynamodbav:"qut-username" json:"qut-username"`
	PostID     string `dynamodbav:"postId" json:"postId"`
	Title      string `dynamodbav:"title" json:"title"`
	Content    string `dynamodbav:"content" json:"content"`
	ImageURL   string `dynamodbav:"imageUrl" json:"imageUrl"`
	Timestamp  string `dynamodbav:"timestamp" json:"timestamp"`
	UploadedBy string `dynamodbav:"uploadedBy" json:"uploadedBy"`
}

// Record converts the post into its key-value item under partition.
func (p *Post) Record(partition string) PostRecord {
	ts := p.CreatedAt
	if p.UpdatedAt != nil {
		ts = *p.UpdatedAt
	}
	return PostRecord{
		Partition:  partition,
		PostID:     p.PostID,
		Title:      p.Title,
		Content:    p.Content,
		ImageURL:   p.ImageURL,
		Timestamp:  ts.UTC().Format(time.RFC3339),
		UploadedBy: p.User,
	}
}

// Notification builds the queue message announcing the post.
func (p *Post) Notification() PostNotification {
	return PostNotification{
		PostID:   p.PostID,
		Title:    p.Title,
		Content:  p.Content,
		ImageURL: p.ImageURL,
		UserID:   p.User,
	}
}

// PostNotification is the queue message body.
type PostNotification struct {
	PostID   string `json:"postId"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
	UserID   string `json:"userId"`
}
