// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package cache provides a bounded, time-limited set used to drop duplicate
// deliveries from at-least-once queues.
//
// The set is exact: a key reported as seen was recorded within the TTL and
// has not been evicted for capacity. There are no false positives, so a
// message is never dropped unless it really was delivered before.
//
//	seen := cache.NewDedup(10000, time.Hour)
//	if seen.Seen(msg.PostID) {
//	    // duplicate delivery
//	}
package cache
