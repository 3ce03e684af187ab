// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func testPost() *Post {
	return &Post{
		ID:        bson.NewObjectID(),
		PostID:    "6f1c1b5e-3c49-4b7e-9a7c-0e1f2d3c4b5a",
		Title:     "Flat white",
		Content:   "Best in town",
		ImageURL:  "https://images.s3.ap-southeast-2.amazonaws.com/u1/cup.png",
		User:      "u1",
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("AEST", 10*3600)),
	}
}

func TestPostRecord(t *testing.T) {
	p := testPost()
	rec := p.Record("n1234567@qut.edu.au")

	if rec.Partition != "n1234567@qut.edu.au" {
		t.Errorf("Partition = %q", rec.Partition)
	}
	if rec.PostID != p.PostID || rec.ImageURL != p.ImageURL {
		t.Errorf("record does not mirror post: %+v", rec)
	}
	if rec.UploadedBy != "u1" {
		t.Errorf("UploadedBy = %q, want u1", rec.UploadedBy)
	}
	if rec.Timestamp != "2026-02-28T23:30:00Z" {
		t.Errorf("Timestamp = %q, want UTC RFC3339", rec.Timestamp)
	}

	updated := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	p.UpdatedAt = &updated
	if got := p.Record("x").Timestamp; got != "2026-03-02T00:00:00Z" {
		t.Errorf("Timestamp after update = %q", got)
	}
}

func TestPostNotificationWireFormat(t *testing.T) {
	data, err := json.Marshal(testPost().Notification())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"postId"`, `"title"`, `"content"`, `"imageUrl"`, `"userId":"u1"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("notification %s missing %s", data, key)
		}
	}
}

func TestPostJSONUsesHexID(t *testing.T) {
	p := testPost()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"id":"`+p.ID.Hex()+`"`) {
		t.Errorf("post JSON %s does not carry hex id", data)
	}
	if strings.Contains(string(data), "updatedAt") {
		t.Errorf("unset updatedAt should be omitted: %s", data)
	}
}

func TestPostSummaryBSONInline(t *testing.T) {
	s := PostSummary{Post: *testPost(), CommentCount: 3}
	raw, err := bson.Marshal(s)
	if err != nil {
		t.Fatalf("bson.Marshal: %v", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("bson.Unmarshal: %v", err)
	}
	if doc["title"] != "Flat white" {
		t.Errorf("inline title missing: %v", doc)
	}
	if doc["commentCount"] != int32(3) {
		t.Errorf("commentCount = %#v", doc["commentCount"])
	}
}

func TestPageFlashSerializesEmptyLists(t *testing.T) {
	data, err := json.Marshal(Page{Page: "auth/login", Flash: Flash{Success: []string{}, Error: []string{"bad"}}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"page":"auth/login","flash":{"success":[],"error":["bad"]}}`
	if string(data) != want {
		t.Errorf("Page JSON = %s, want %s", data, want)
	}
}
