// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package cache

import (
	"sync"
	"time"
)

type dedupEntry struct {
	key       string
	prev      *dedupEntry
	next      *dedupEntry
	expiresAt time.Time
}

// Dedup is a thread-safe LRU set with per-entry TTL.
//
// A doubly-linked list keeps recency order and a map gives O(1) lookup.
// Expired entries are dropped lazily on access; capacity overflow evicts
// the least recently seen key.
type Dedup struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*dedupEntry

	// head.next is the most recently seen, tail.prev the least.
	head *dedupEntry
	tail *dedupEntry

	duplicates int64
}

// NewDedup creates a set holding at most capacity keys for ttl each.
func NewDedup(capacity int, ttl time.Duration) *Dedup {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	d := &Dedup{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*dedupEntry, capacity),
		head:     &dedupEntry{},
		tail:     &dedupEntry{},
	}
	d.head.next = d.tail
	d.tail.prev = d.head
	return d
}

// Seen reports whether key was recorded within the TTL. An unseen key is
// recorded, so the first call for a key returns false and later calls
// return true until the entry expires or is evicted.
func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()

	if entry, ok := d.items[key]; ok {
		if now.Before(entry.expiresAt) {
			d.moveToFront(entry)
			d.duplicates++
			return true
		}
		d.removeEntry(entry)
	}

	entry := &dedupEntry{key: key, expiresAt: now.Add(d.ttl)}
	d.addToFront(entry)
	d.items[key] = entry

	for len(d.items) > d.capacity {
		d.evictOldest()
	}
	return false
}

// Forget removes key so that the next delivery is treated as new.
func (d *Dedup) Forget(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.items[key]; ok {
		d.removeEntry(entry)
		return true
	}
	return false
}

// Len returns the number of recorded keys, including expired ones not yet
// dropped.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Duplicates returns how many times Seen returned true.
func (d *Dedup) Duplicates() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duplicates
}

// Internal methods (must be called with lock held)

func (d *Dedup) addToFront(entry *dedupEntry) {
	entry.prev = d.head
	entry.next = d.head.next
	d.head.next.prev = entry
	d.head.next = entry
}

func (d *Dedup) moveToFront(entry *dedupEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	d.addToFront(entry)
}

func (d *Dedup) removeEntry(entry *dedupEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(d.items, entry.key)
}

func (d *Dedup) evictOldest() {
	oldest := d.tail.prev
	if oldest == d.head {
		return
	}
	d.removeEntry(oldest)
}
