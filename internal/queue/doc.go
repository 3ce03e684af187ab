// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package queue relays new-post notifications through SQS.
//
// The Producer sends one message per created post and never fails the
// caller. The Consumer long-polls one message at a time, broadcasts it as
// a newPost event and deletes it. Delivery is at-least-once; the consumer
// drops redeliveries of a postId it has already relayed when a dedup set
// is configured.
package queue
