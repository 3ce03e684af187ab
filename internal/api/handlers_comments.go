// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/coffeechat/internal/docstore"
	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/models"
)

type commentForm struct {
	Content string `form:"content" validate:"required,max=2000"`
	PostID  string `form:"postId" validate:"required,objectid"`
}

type commentEditForm struct {
	Content string `form:"content" validate:"required,max=2000"`
}

// detailPath returns the post page with a cache-busting query.
func detailPath(postID string, now time.Time) string {
	return fmt.Sprintf("/posts/detail/%s?nocache=%d", postID, now.UnixMilli())
}

// backPath returns the same-origin page in Referer, or the post list.
func backPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return homePath
	}
	if ref.Host != "" && ref.Host != r.Host {
		return homePath
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

// AddComment stores a comment on an existing post and redirects to the
// post page.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	form := commentForm{Content: r.PostFormValue("content"), PostID: r.PostFormValue("postId")}
	if msg := validateForm(&form); msg != "" {
		respondError(w, r, http.StatusBadRequest, msg, nil)
		return
	}
	postID, err := docstore.ParseID(form.PostID)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, MsgInvalidPostID, nil)
		return
	}

	if _, err := h.docs.GetPost(r.Context(), postID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, MsgPostNotFound, nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "Failed to add comment", err)
		return
	}

	user := subject(r)
	comment := &models.Comment{
		Content:  form.Content,
		WriterID: user.ID,
		Writer:   user.DisplayName(),
		ParentID: postID,
	}
	if err := h.docs.CreateComment(r.Context(), comment); err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to add comment", err)
		return
	}

	http.Redirect(w, r, detailPath(form.PostID, time.Now()), http.StatusFound)
}

// EditComment replaces the content of the caller's comment. Moderators may
// edit any comment.
func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	id, err := docstore.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, MsgInvalidCommentID, nil)
		return
	}
	form := commentEditForm{Content: r.PostFormValue("content")}
	if msg := validateForm(&form); msg != "" {
		respondError(w, r, http.StatusBadRequest, msg, nil)
		return
	}

	user := subject(r)
	if h.authz.IsModerator(user.ID) {
		err = h.docs.UpdateCommentAny(r.Context(), id, form.Content)
	} else {
		err = h.docs.UpdateComment(r.Context(), id, user.ID, form.Content)
	}
	if errors.Is(err, docstore.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, MsgCommentEditDeny, nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to edit comment", err)
		return
	}

	logging.Ctx(r.Context()).Debug().Str("comment_id", id.Hex()).Msg("Comment edited")
	http.Redirect(w, r, backPath(r), http.StatusFound)
}

// DeleteComment removes the caller's comment. Moderators may delete any
// comment.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := docstore.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, MsgInvalidCommentID, nil)
		return
	}

	user := subject(r)
	if h.authz.IsModerator(user.ID) {
		err = h.docs.DeleteCommentAny(r.Context(), id)
	} else {
		err = h.docs.DeleteComment(r.Context(), id, user.ID)
	}
	if errors.Is(err, docstore.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, MsgCommentDelDeny, nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to delete comment", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": MsgCommentDeleted})
}
