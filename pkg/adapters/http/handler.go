// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"

	"github.com/leseb/pdf-columns/pkg/core/schema"
	"github.com/leseb/pdf-columns/pkg/core/services"
	"github.com/leseb/pdf-columns/pkg/filestore"
	"github.com/leseb/pdf-columns/pkg/observability/logging"
)

// Options configures the upload receiver.
type Options struct {
	MaxUploadBytes int64  // request body cap
	UploadField    string // multipart field holding the PDF
	CORS           bool   // answer pre-flight requests and allow any origin
}

// Handler implements the HTTP adapter
type Handler struct {
	service *services.ColumnService
	staging filestore.FileStore
	logger  *logging.Logger
	opts    Options
	mux     *http.ServeMux
}

// New creates a new HTTP handler
func New(service *services.ColumnService, staging filestore.FileStore, logger *logging.Logger, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.UploadField == "" {
		opts.UploadField = defaultUploadField
	}
	if logger == nil {
		logger = logging.Discard()
	}

	h := &Handler{
		service: service,
		staging: staging,
		logger:  logger,
		opts:    opts,
		mux:     http.NewServeMux(),
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)

	// Upload API
	h.mux.HandleFunc("POST /api/upload", h.handleUpload)
	if opts.CORS {
		h.mux.HandleFunc("OPTIONS /api/upload", h.handleUploadPreflight)
	}
	h.mux.HandleFunc("/api/upload", h.handleMethodNotAllowed)

	// Extractions API
	h.mux.HandleFunc("GET /v1/extractions", h.handleListExtractions)
	h.mux.HandleFunc("GET /v1/extractions/{id}", h.handleGetExtraction)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	h.mux.ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleMethodNotAllowed rejects anything but POST (and OPTIONS with CORS) on the upload route
func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	allow := "POST"
	if h.opts.CORS {
		allow = "POST, OPTIONS"
	}
	w.Header().Set("Allow", allow)
	h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
}

// writeJSON encodes v before committing status, so an unencodable body
// becomes a 500 instead of a truncated success.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode response", "error", err)
		status = http.StatusInternalServerError
		data, _ = json.Marshal(schema.ErrorResponse{
			Error:   "Failed to encode response",
			Details: err.Error(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message, details string) {
	h.writeJSON(w, status, schema.ErrorResponse{
		Error:   message,
		Details: details,
	})
}
