// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package models

// Page is returned by routes that a browser client renders.
//
// Example:
//
//	{
//	  "page": "posts/list",
//	  "data": {"posts": [...]},
//	  "flash": {"success": ["Post created"], "error": []}
//	}
type Page struct {
	Page  string      `json:"page"`
	Data  interface{} `json:"data,omitempty"`
	Flash Flash       `json:"flash"`
}

// Flash holds one-shot messages consumed from the session.
type Flash struct {
	Success []string `json:"success"`
	Error   []string `json:"error"`
}

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
