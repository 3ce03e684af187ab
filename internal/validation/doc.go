// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared across the process. Field names in
// error messages come from the `form` tag when present, so messages name the
// form field the browser sent.
//
// # Custom Tags
//
//   - objectid: a 24 character hex MongoDB ObjectID
//   - imagefile: a file name ending in .jpeg, .jpg, .png or .gif
//
// # Usage
//
//	type commentForm struct {
//	    Content string `form:"content" validate:"required,max=2000"`
//	    PostID  string `form:"postId" validate:"required,objectid"`
//	}
//
//	if err := validation.ValidateStruct(&f); err != nil {
//	    respondError(w, http.StatusBadRequest, err.Error())
//	    return
//	}
package validation
