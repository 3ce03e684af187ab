// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

//go:build integration

package recordstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/tomtom215/coffeechat/internal/models"
	"github.com/tomtom215/coffeechat/internal/testinfra"
)

func TestStoreIntegration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	ls, err := testinfra.NewLocalStackContainer(ctx)
	if err != nil {
		t.Fatalf("start localstack: %v", err)
	}
	t.Cleanup(func() { testinfra.CleanupContainer(t, ctx, ls) })

	store := New(dynamodb.NewFromConfig(ls.AWSConfig()), "coffeechat-posts", "n1234567@qut.edu.au")
	if err := store.EnsureTable(ctx, time.Minute); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	// A second call finds the table.
	if err := store.EnsureTable(ctx, time.Minute); err != nil {
		t.Fatalf("EnsureTable (existing): %v", err)
	}

	rec := models.PostRecord{
		PostID:     "p-1",
		Title:      "Flat white",
		Content:    "smooth",
		ImageURL:   "https://example.test/alice/1.png",
		Timestamp:  "2026-01-02T03:04:05Z",
		UploadedBy: "alice",
	}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "p-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Partition != store.Partition() || got.Title != rec.Title || got.UploadedBy != "alice" {
		t.Errorf("Get() = %+v", got)
	}

	all, err := store.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Scan() returned %d records, want 1", len(all))
	}

	if err := store.Delete(ctx, "p-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "p-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
}
