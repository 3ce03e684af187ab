// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDedup(capacity int, ttl time.Duration) (*Dedup, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	d := NewDedup(capacity, ttl)
	d.now = clock.Now
	return d, clock
}

func TestDedup_SeenTwice(t *testing.T) {
	d, _ := newTestDedup(10, time.Minute)

	if d.Seen("post-1") {
		t.Error("first delivery reported as duplicate")
	}
	if !d.Seen("post-1") {
		t.Error("second delivery not reported as duplicate")
	}
	if d.Seen("post-2") {
		t.Error("different key reported as duplicate")
	}
	if d.Duplicates() != 1 {
		t.Errorf("Duplicates() = %d, want 1", d.Duplicates())
	}
}

func TestDedup_Expiry(t *testing.T) {
	d, clock := newTestDedup(10, time.Minute)

	d.Seen("post-1")
	clock.Advance(59 * time.Second)
	if !d.Seen("post-1") {
		t.Error("key expired early")
	}

	clock.Advance(61 * time.Second)
	if d.Seen("post-1") {
		t.Error("expired key still reported as duplicate")
	}
}

func TestDedup_CapacityEvictsLeastRecent(t *testing.T) {
	d, _ := newTestDedup(3, time.Hour)

	d.Seen("a")
	d.Seen("b")
	d.Seen("c")
	d.Seen("a") // refresh a; b is now least recent
	d.Seen("d") // evicts b

	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3", d.Len())
	}
	if d.Seen("b") {
		t.Error("evicted key reported as duplicate")
	}
	// Re-adding b evicted c.
	if !d.Seen("a") {
		t.Error("a should still be present")
	}
}

func TestDedup_Forget(t *testing.T) {
	d, _ := newTestDedup(10, time.Hour)

	d.Seen("post-1")
	if !d.Forget("post-1") {
		t.Error("Forget() = false for present key")
	}
	if d.Forget("post-1") {
		t.Error("Forget() = true for absent key")
	}
	if d.Seen("post-1") {
		t.Error("forgotten key reported as duplicate")
	}
}

func TestNewDedup_Defaults(t *testing.T) {
	d := NewDedup(0, 0)
	if d.capacity != 10000 {
		t.Errorf("capacity = %d, want 10000", d.capacity)
	}
	if d.ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", d.ttl)
	}
}

func TestDedup_ConcurrentSingleWinner(t *testing.T) {
	d := NewDedup(1000, time.Hour)

	var firsts atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 20; k++ {
				if !d.Seen(fmt.Sprintf("key-%d", k)) {
					firsts.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if firsts.Load() != 20 {
		t.Errorf("first deliveries = %d, want exactly 20", firsts.Load())
	}
}
