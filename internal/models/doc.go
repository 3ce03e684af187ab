// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package models defines the data structures shared across coffeechat.

Storage Models:

  - Post: a post document in the "post" collection
  - PostSummary: a Post with its comment count (list aggregation)
  - Comment: a comment document in the "comment" collection
  - PostRecord: the key-value table item mirroring a Post

Messaging Models:

  - PostNotification: the queue message body announcing a new post
  - ChatMessage: a room message broadcast over the real-time channel

HTTP Models:

  - Page: the JSON payload returned where a page would be rendered
  - ErrorResponse: the JSON error body

Struct tags carry three encodings: `json` for HTTP and queue bodies, `bson`
for MongoDB, and `dynamodbav` for the key-value table.
*/
package models
