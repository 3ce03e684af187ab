// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/coffeechat/internal/models"
	"github.com/tomtom215/coffeechat/internal/recordstore"
)

// RecordsResponse is the body of GET /records.
type RecordsResponse struct {
	Partition string              `json:"partition"`
	Count     int                 `json:"count"`
	Records   []models.PostRecord `json:"records"`
}

// ListRecords scans the key-value table. There is no pagination.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.Scan(r.Context())
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "Failed to scan records", err)
		return
	}
	if records == nil {
		records = []models.PostRecord{}
	}
	respondJSON(w, http.StatusOK, RecordsResponse{
		Partition: h.records.Partition(),
		Count:     len(records),
		Records:   records,
	})
}

// GetRecord returns the key-value item of one post.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postId")
	rec, err := h.records.Get(r.Context(), postID)
	if errors.Is(err, recordstore.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, MsgRecordNotFound, nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "Failed to read record", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
