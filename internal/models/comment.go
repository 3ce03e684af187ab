// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment belongs to exactly one post. Deleting the post leaves its
// comments in place.
type Comment struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Content   string        `bson:"content" json:"content"`
	WriterID  string        `bson:"writerId" json:"writerId"`
	Writer    string        `bson:"writer" json:"writer"`
	ParentID  bson.ObjectID `bson:"parentId" json:"parentId"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}
