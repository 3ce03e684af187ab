// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package docstore

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParseID(t *testing.T) {
	valid := bson.NewObjectID()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", valid.Hex(), false},
		{"empty", "", true},
		{"too short", "abc123", true},
		{"not hex", "zzzzzzzzzzzzzzzzzzzzzzzz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Fatalf("ParseID(%q) error = %v, want ErrInvalidID", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q) unexpected error: %v", tt.input, err)
			}
			if id != valid {
				t.Errorf("ParseID(%q) = %s, want %s", tt.input, id.Hex(), valid.Hex())
			}
		})
	}
}

func TestListPipeline(t *testing.T) {
	pipeline := listPipeline()

	wantStages := []string{"$lookup", "$addFields", "$sort", "$project"}
	if len(pipeline) != len(wantStages) {
		t.Fatalf("pipeline has %d stages, want %d", len(pipeline), len(wantStages))
	}
	for i, want := range wantStages {
		if got := pipeline[i][0].Key; got != want {
			t.Errorf("stage %d = %s, want %s", i, got, want)
		}
	}

	lookup, ok := pipeline[0][0].Value.(bson.M)
	if !ok {
		t.Fatalf("$lookup value is %T", pipeline[0][0].Value)
	}
	if lookup["from"] != CommentCollection || lookup["foreignField"] != "parentId" {
		t.Errorf("$lookup = %v", lookup)
	}

	sort, ok := pipeline[2][0].Value.(bson.D)
	if !ok || len(sort) != 1 || sort[0].Key != "createdAt" || sort[0].Value != -1 {
		t.Errorf("$sort = %v, want createdAt descending", pipeline[2][0].Value)
	}
}

func TestPostUpdateDocument(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	image := "https://bucket.s3.ap-southeast-2.amazonaws.com/u/1.png"

	tests := []struct {
		name     string
		update   PostUpdate
		wantKeys []string
	}{
		{
			name:     "text only",
			update:   PostUpdate{Title: "t", Content: "c"},
			wantKeys: []string{"title", "content", "updatedAt"},
		},
		{
			name:     "with image",
			update:   PostUpdate{Title: "t", Content: "c", ImageURL: &image},
			wantKeys: []string{"title", "content", "updatedAt", "imageUrl"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.update.document(now)
			if len(doc) != 1 || doc[0].Key != "$set" {
				t.Fatalf("document = %v, want a single $set", doc)
			}
			set := doc[0].Value.(bson.D)
			if len(set) != len(tt.wantKeys) {
				t.Fatalf("$set has %d fields, want %d", len(set), len(tt.wantKeys))
			}
			for i, k := range tt.wantKeys {
				if set[i].Key != k {
					t.Errorf("field %d = %s, want %s", i, set[i].Key, k)
				}
			}
			if set[2].Value != now {
				t.Errorf("updatedAt = %v, want %v", set[2].Value, now)
			}
		})
	}
}

func TestOwnedBy(t *testing.T) {
	id := bson.NewObjectID()
	filter := ownedBy(id, "user-1")
	if len(filter) != 2 || filter[0].Value != id || filter[1].Key != "writerId" || filter[1].Value != "user-1" {
		t.Errorf("ownedBy = %v", filter)
	}
}
