// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/coffeechat/internal/auth"
	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/models"
	"github.com/tomtom215/coffeechat/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log
// injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends {"error": message}. err is logged, never returned to
// the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Int("status", status).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, models.ErrorResponse{Error: message})
}

// respondText sends a plain-text body. Used where browsers submit forms
// directly and read the body as is.
func respondText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// renderPage writes a JSON page payload carrying the session's pending
// flash messages. The session is saved only when messages were consumed.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	flash := models.Flash{Success: []string{}, Error: []string{}}
	if session := auth.SessionFromContext(r.Context()); session != nil {
		consumed := session.HasFlash()
		flash = session.PopFlash()
		if consumed {
			h.sessions.SaveOrLog(r, w, session)
		}
	}
	respondJSON(w, http.StatusOK, models.Page{Page: name, Data: data, Flash: flash})
}

// redirectWithError queues an error flash and redirects.
func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, target, msg string) {
	if session := auth.SessionFromContext(r.Context()); session != nil {
		session.AddError(msg)
		h.sessions.SaveOrLog(r, w, session)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// redirectWithSuccess queues a success flash and redirects.
func (h *Handler) redirectWithSuccess(w http.ResponseWriter, r *http.Request, target, msg string) {
	if session := auth.SessionFromContext(r.Context()); session != nil {
		session.AddSuccess(msg)
		h.sessions.SaveOrLog(r, w, session)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// validateForm validates v and returns the first failure as a message, or
// "" when v is valid.
//
// Example:
//
//	form := loginForm{Username: r.PostFormValue("username")}
//	if msg := validateForm(&form); msg != "" {
//	    h.redirectWithError(w, r, auth.LoginPath, msg)
//	    return
//	}
func validateForm(v interface{}) string {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return ""
	}
	if errs := verr.Errors(); len(errs) > 0 {
		return errs[0].Error()
	}
	return verr.Error()
}

// subject returns the authenticated caller. Routes behind RequireToken
// always have one.
func subject(r *http.Request) *auth.Subject {
	if s := auth.SubjectFromContext(r.Context()); s != nil {
		return s
	}
	return &auth.Subject{}
}

// clientIP returns the address set by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
