// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import "errors"

var (
	errStateMismatch = errors.New("callback state does not match session state")
	errNotOwner      = errors.New("caller does not own the resource")
)

// Response messages shared by the post and comment handlers.
const (
	MsgInvalidPostID    = "Invalid post ID"
	MsgInvalidCommentID = "Invalid comment ID"
	MsgPostNotFound     = "Post not found"
	MsgNoFile           = "No file uploaded"
	MsgNotImage         = "Only image files (jpeg, jpg, png, gif) are allowed"
	MsgFileTooLarge     = "File too large"
	MsgUnexpected       = "An unexpected error occurred."
	MsgPostCreated      = "Post created"
	MsgPostUpdated      = "Post updated"
	MsgPostDeleted      = "Post deleted successfully"
	MsgCommentDeleted   = "Comment deleted successfully"
	MsgCommentEditDeny  = "Comment not found or you are not authorized to edit it"
	MsgCommentDelDeny   = "Comment not found or you are not authorized to delete it"
	MsgRecordNotFound   = "Record not found"
)
