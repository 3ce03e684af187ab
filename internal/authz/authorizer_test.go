// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package authz

import "testing"

func TestAuthorizerCan(t *testing.T) {
	a, err := New([]string{"mod-1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name     string
		user     string
		owner    string
		resource string
		action   string
		want     bool
	}{
		{"owner deletes post", "alice", "alice", ResourcePost, ActionDelete, true},
		{"owner edits comment", "alice", "alice", ResourceComment, ActionEdit, true},
		{"stranger deletes post", "bob", "alice", ResourcePost, ActionDelete, false},
		{"stranger edits comment", "bob", "alice", ResourceComment, ActionEdit, false},
		{"moderator deletes post", "mod-1", "alice", ResourcePost, ActionDelete, true},
		{"moderator edits comment", "mod-1", "alice", ResourceComment, ActionEdit, true},
		{"empty user never owns", "", "", ResourcePost, ActionDelete, false},
		{"unknown action", "alice", "alice", ResourcePost, "publish", false},
		{"unknown resource", "alice", "alice", "room", ActionDelete, false},
		{"literal owner role name", "owner", "alice", ResourcePost, ActionDelete, false},
		{"literal moderator role name", "moderator", "alice", ResourcePost, ActionDelete, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Can(tt.user, tt.owner, tt.resource, tt.action); got != tt.want {
				t.Errorf("Can(%q, %q, %s, %s) = %v, want %v", tt.user, tt.owner, tt.resource, tt.action, got, tt.want)
			}
		})
	}
}

func TestAuthorizerModerators(t *testing.T) {
	a, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.IsModerator("mod-2") {
		t.Fatal("IsModerator before grant")
	}
	if err := a.AddModerator("mod-2"); err != nil {
		t.Fatalf("AddModerator: %v", err)
	}
	if !a.IsModerator("mod-2") {
		t.Error("IsModerator after grant = false")
	}
	if err := a.AddModerator(""); err == nil {
		t.Error("empty moderator id accepted")
	}
	if _, err := New([]string{"owner"}); err == nil {
		t.Error("reserved moderator id accepted")
	}
}
