// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/tomtom215/coffeechat/internal/authz"
	"github.com/tomtom215/coffeechat/internal/docstore"
	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
	"github.com/tomtom215/coffeechat/internal/objectstore"
	"github.com/tomtom215/coffeechat/internal/validation"
)

// imageField is the multipart field carrying the post image.
const imageField = "img1"

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type postForm struct {
	Title   string `form:"title" validate:"required,max=200"`
	Content string `form:"content" validate:"max=10000"`
}

func readPostForm(r *http.Request) postForm {
	return postForm{
		Title:   strings.TrimSpace(r.PostFormValue("title")),
		Content: r.PostFormValue("content"),
	}
}

// pathObjectID parses a URL parameter as an ObjectID, answering 400 when
// it is malformed.
func pathObjectID(w http.ResponseWriter, r *http.Request, param, msg string) (bson.ObjectID, bool) {
	id, err := docstore.ParseID(chi.URLParam(r, param))
	if err != nil {
		respondText(w, http.StatusBadRequest, msg)
		return bson.NilObjectID, false
	}
	return id, true
}

// loadPost answers 404 or 500 itself when the post cannot be returned.
func (h *Handler) loadPost(w http.ResponseWriter, r *http.Request, id bson.ObjectID) (*models.Post, bool) {
	post, err := h.docs.GetPost(r.Context(), id)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		respondText(w, http.StatusNotFound, MsgPostNotFound)
		return nil, false
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("id", id.Hex()).Msg("Failed to load post")
		respondText(w, http.StatusInternalServerError, MsgUnexpected)
		return nil, false
	}
	return post, true
}

// authorize answers 403 when the caller may not act on a resource owned
// by ownerID.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, ownerID, resource, action string) bool {
	user := subject(r)
	if h.authz.Can(user.ID, ownerID, resource, action) {
		return true
	}
	h.security.Log(logging.EventForbiddenAction, user.ID, clientIP(r), errNotOwner.Error())
	metrics.AuthEvents.WithLabelValues(string(logging.EventForbiddenAction)).Inc()
	respondText(w, http.StatusForbidden, fmt.Sprintf("You are not authorized to %s this %s", action, resource))
	return false
}

// parseMultipart reads a multipart or urlencoded body within the upload
// limit. It answers 413 or 400 itself and returns false on failure.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondText(w, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
		return false
	}
	logging.Ctx(r.Context()).Debug().Err(err).Msg("Malformed form body")
	respondText(w, http.StatusBadRequest, "Invalid form data")
	return false
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// uploadImage stores the file under ownerID through a pre-signed PUT and
// returns the object URL kept on the post.
func (h *Handler) uploadImage(r *http.Request, ownerID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	fileName := fmt.Sprintf("%d%s", time.Now().UnixMilli(), strings.ToLower(filepath.Ext(header.Filename)))
	up, err := h.images.PresignUpload(r.Context(), ownerID, fileName)
	if err != nil {
		return "", err
	}
	if err := h.images.Upload(r.Context(), up, file, header.Size, header.Header.Get("Content-Type")); err != nil {
		return "", err
	}
	return h.images.ObjectURL(up.Key), nil
}

// deleteImage removes the object behind imageURL. Failures are logged.
func (h *Handler) deleteImage(r *http.Request, imageURL string) {
	key, ok := objectstore.KeyFromURL(imageURL)
	if !ok {
		return
	}
	if err := h.images.Delete(r.Context(), key); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("key", key).Msg("Failed to delete image")
	}
}

// mirrorRecord writes the key-value copy of post. The document store is
// the source of truth: a failure here is counted and logged and the
// request still succeeds.
func (h *Handler) mirrorRecord(r *http.Request, post *models.Post) {
	if post.PostID == "" {
		return
	}
	if err := h.records.Put(r.Context(), post.Record(h.records.Partition())); err != nil {
		metrics.DualWriteFailures.Inc()
		logging.Ctx(r.Context()).Error().Err(err).
			Str("post_id", post.PostID).
			Str("id", post.ID.Hex()).
			Msg("Key-value write failed, post exists only in the document store")
	}
}

// ListPosts returns every post with its comment count, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.docs.ListPosts(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to fetch posts")
		respondText(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	h.renderPage(w, r, "posts/list", map[string]interface{}{
		"posts": posts,
		"user":  subject(r),
	})
}

// WritePage returns the new post form.
func (h *Handler) WritePage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "posts/write", map[string]interface{}{"user": subject(r)})
}

// AddPost uploads the image, inserts the post, mirrors it into the
// key-value table and announces it on the queue.
func (h *Handler) AddPost(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	defer cleanupMultipart(r)

	file, header, err := r.FormFile(imageField)
	if err != nil {
		respondText(w, http.StatusBadRequest, MsgNoFile)
		return
	}
	defer file.Close()

	if !validation.IsImage(header.Filename, header.Header.Get("Content-Type")) {
		respondText(w, http.StatusBadRequest, MsgNotImage)
		return
	}
	form := readPostForm(r)
	if msg := validateForm(&form); msg != "" {
		respondText(w, http.StatusBadRequest, msg)
		return
	}

	user := subject(r)
	imageURL, err := h.uploadImage(r, user.ID, file, header)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to upload image")
		respondText(w, http.StatusInternalServerError, MsgUnexpected)
		return
	}

	post := &models.Post{
		PostID:   uuid.NewString(),
		Title:    form.Title,
		Content:  form.Content,
		ImageURL: imageURL,
		User:     user.ID,
	}
	if err := h.docs.CreatePost(r.Context(), post); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("post_id", post.PostID).Msg("Failed to add post")
		h.deleteImage(r, imageURL)
		respondText(w, http.StatusInternalServerError, MsgUnexpected)
		return
	}
	h.mirrorRecord(r, post)

	if h.notifier != nil {
		h.notifier.Publish(r.Context(), post.Notification())
	}

	logging.Ctx(r.Context()).Info().Str("post_id", post.PostID).Str("id", post.ID.Hex()).Msg("Post created")
	h.redirectWithSuccess(w, r, homePath, MsgPostCreated)
}

// PostDetail returns a post, its comments and a pre-signed image URL.
func (h *Handler) PostDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(w, r, "postId", MsgInvalidPostID)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r, id)
	if !ok {
		return
	}

	comments, err := h.docs.ListComments(r.Context(), id)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("id", id.Hex()).Msg("Failed to fetch comments")
		respondText(w, http.StatusInternalServerError, MsgUnexpected)
		return
	}

	imageURL := ""
	if key, ok := objectstore.KeyFromURL(post.ImageURL); ok {
		signed, err := h.images.PresignDownload(r.Context(), key)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("key", key).Msg("Failed to sign image URL")
		} else {
			imageURL = signed
		}
	}

	user := subject(r)
	h.renderPage(w, r, "posts/detail", map[string]interface{}{
		"post":     post,
		"comments": comments,
		"imageUrl": imageURL,
		"user":     user,
		"canEdit":  h.authz.Can(user.ID, post.User, authz.ResourcePost, authz.ActionEdit),
	})
}

// EditPage returns the edit form of a post the caller may edit.
func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(w, r, "id", MsgInvalidPostID)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r, id)
	if !ok {
		return
	}
	if !h.authorize(w, r, post.User, authz.ResourcePost, authz.ActionEdit) {
		return
	}
	h.renderPage(w, r, "posts/edit", map[string]interface{}{"post": post})
}

// EditPost updates title and content and, with a new image, replaces the
// stored image.
func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(w, r, "id", MsgInvalidPostID)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r, id)
	if !ok {
		return
	}
	if !h.authorize(w, r, post.User, authz.ResourcePost, authz.ActionEdit) {
		return
	}
	if !h.parseMultipart(w, r) {
		return
	}
	defer cleanupMultipart(r)

	form := readPostForm(r)
	if msg := validateForm(&form); msg != "" {
		respondText(w, http.StatusBadRequest, msg)
		return
	}
	update := docstore.PostUpdate{Title: form.Title, Content: form.Content}

	file, header, err := r.FormFile(imageField)
	switch {
	case err == nil:
		defer file.Close()
		if !validation.IsImage(header.Filename, header.Header.Get("Content-Type")) {
			respondText(w, http.StatusBadRequest, MsgNotImage)
			return
		}
		imageURL, err := h.uploadImage(r, post.User, file, header)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to upload image")
			respondText(w, http.StatusInternalServerError, MsgUnexpected)
			return
		}
		update.ImageURL = &imageURL
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		respondText(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	updated, err := h.docs.UpdatePost(r.Context(), id, update)
	if errors.Is(err, docstore.ErrNotFound) {
		respondText(w, http.StatusNotFound, MsgPostNotFound)
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("id", id.Hex()).Msg("Failed to update post")
		respondText(w, http.StatusInternalServerError, "Failed to update post")
		return
	}
	h.mirrorRecord(r, updated)

	if update.ImageURL != nil && post.ImageURL != "" && post.ImageURL != *update.ImageURL {
		h.deleteImage(r, post.ImageURL)
	}
	h.redirectWithSuccess(w, r, homePath, MsgPostUpdated)
}

// DeletePost removes the document, then the key-value record and the
// image. Only the owner or a moderator may delete.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(w, r, "postId", MsgInvalidPostID)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r, id)
	if !ok {
		return
	}
	if !h.authorize(w, r, post.User, authz.ResourcePost, authz.ActionDelete) {
		return
	}

	if err := h.docs.DeletePost(r.Context(), id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			respondText(w, http.StatusNotFound, MsgPostNotFound)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("id", id.Hex()).Msg("Failed to delete post")
		respondText(w, http.StatusInternalServerError, MsgUnexpected)
		return
	}

	if post.PostID != "" {
		if err := h.records.Delete(r.Context(), post.PostID); err != nil {
			metrics.DualWriteFailures.Inc()
			logging.Ctx(r.Context()).Error().Err(err).Str("post_id", post.PostID).Msg("Key-value delete failed")
		}
	}
	if post.ImageURL != "" {
		h.deleteImage(r, post.ImageURL)
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": MsgPostDeleted})
}
