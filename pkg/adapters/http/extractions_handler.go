// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/leseb/pdf-columns/pkg/core/schema"
	"github.com/leseb/pdf-columns/pkg/storage"
)

// handleListExtractions handles GET /v1/extractions
func (h *Handler) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	query := r.URL.Query()
	after := query.Get("after")
	order := query.Get("order")
	if order == "" {
		order = "desc"
	}
	if order != "asc" && order != "desc" {
		h.writeError(w, http.StatusBadRequest, "Invalid order", "order must be asc or desc")
		return
	}

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}
	limit = storage.ClampLimit(limit)

	records, hasMore, err := h.service.ListRecords(r.Context(), after, limit, order)
	if err != nil {
		h.logger.Error("Failed to list extractions", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list extractions", err.Error())
		return
	}

	data := make([]schema.Extraction, 0, len(records))
	for _, rec := range records {
		data = append(data, schema.ExtractionFromRecord(rec))
	}

	resp := schema.ListExtractionsResponse{
		Object:  "list",
		Data:    data,
		HasMore: hasMore,
	}
	if len(data) > 0 {
		resp.FirstID = data[0].ID
		resp.LastID = data[len(data)-1].ID
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleGetExtraction handles GET /v1/extractions/{id}
func (h *Handler) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := h.service.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Extraction not found", id)
			return
		}
		h.logger.Error("Failed to get extraction", "extraction_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to get extraction", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, schema.ExtractionFromRecord(rec))
}
