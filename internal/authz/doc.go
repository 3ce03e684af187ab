// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package authz decides who may change posts and comments.
//
// The rules are a Casbin model evaluated with the caller, the resource
// owner, the resource kind and the action:
//
//   - the owner of a post or comment may edit and delete it
//   - members of the moderator role may edit and delete anything
//
// Moderators come from configuration:
//
//	az, err := authz.New([]string{"moderator-sub"})
//	if !az.Can(caller.ID, post.User, authz.ResourcePost, authz.ActionDelete) {
//	    // 403
//	}
package authz
