// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/leseb/pdf-columns/pkg/core/services"
	"github.com/leseb/pdf-columns/pkg/filestore"
	"github.com/leseb/pdf-columns/pkg/layout"
)

const (
	defaultMaxUploadBytes = 10 << 20 // 10 MiB
	defaultUploadField    = "pdf"
	// multipartMemory is how much of a form is buffered before spilling to temp files.
	multipartMemory = 4 << 20
)

// ErrNoFile is returned when the upload field holds no file.
var ErrNoFile = errors.New("no file supplied")

// uploadField is what a multipart form carries under the upload field:
// a single file or several of them.
type uploadField interface {
	files() []*multipart.FileHeader
}

type oneFile struct{ header *multipart.FileHeader }

func (f oneFile) files() []*multipart.FileHeader { return []*multipart.FileHeader{f.header} }

type manyFiles []*multipart.FileHeader

func (f manyFiles) files() []*multipart.FileHeader { return f }

func fieldFrom(headers []*multipart.FileHeader) uploadField {
	if len(headers) == 1 {
		return oneFile{header: headers[0]}
	}
	return manyFiles(headers)
}

// normalizeUpload reduces the field to the single file handed to extraction.
// With several files, the first wins.
func normalizeUpload(field uploadField) (*multipart.FileHeader, error) {
	for _, fh := range field.files() {
		if fh != nil {
			return fh, nil
		}
	}
	return nil, ErrNoFile
}

// handleUpload handles POST /api/upload
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	err := r.ParseMultipartForm(multipartMemory)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
		}
		h.logger.Error("Failed to parse multipart form", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to process PDF", err.Error())
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[h.opts.UploadField]
	}
	header, err := normalizeUpload(fieldFrom(headers))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "No PDF file uploaded", "")
		return
	}

	tolerance, err := parseTolerance(r.URL.Query().Get("tolerance"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid tolerance", err.Error())
		return
	}

	content, err := h.stageAndRead(r.Context(), header)
	if err != nil {
		h.logger.Error("Failed to stage upload", "error", err, "filename", header.Filename)
		h.writeError(w, http.StatusInternalServerError, "Failed to process PDF", err.Error())
		return
	}

	res, err := h.service.Process(r.Context(), services.Upload{
		Filename:  header.Filename,
		Content:   content,
		Tolerance: tolerance,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.logger.Info("Upload abandoned by client", "filename", header.Filename)
			return
		}
		h.logger.Error("Error processing PDF", "error", err, "filename", header.Filename)
		h.writeError(w, http.StatusInternalServerError, "Failed to process PDF", err.Error())
		return
	}

	h.logger.Info("PDF processed",
		"extraction_id", res.ID,
		"filename", header.Filename,
		"bytes", len(content),
		"items", res.Extracted,
		"columns", len(res.Columns),
		"duration", res.Duration)

	body, err := json.Marshal(res.Columns)
	if err != nil {
		h.logger.Error("Failed to encode column map", "error", err, "extraction_id", res.ID)
		h.writeError(w, http.StatusInternalServerError, "Failed to process PDF", err.Error())
		return
	}

	w.Header().Set("X-Extraction-Id", res.ID)
	h.writeJSON(w, http.StatusOK, json.RawMessage(body))
}

// stageAndRead copies the upload into staging and reads it back. The staged
// copy is removed before returning, whatever the outcome.
func (h *Handler) stageAndRead(ctx context.Context, header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	staged := &filestore.File{
		ID:       uuid.NewString(),
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Bytes:    int64(len(data)),
		Content:  data,
		StagedAt: time.Now(),
	}
	if err := h.staging.Stage(ctx, staged); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer func() {
		if err := h.staging.Remove(context.WithoutCancel(ctx), staged.ID); err != nil {
			h.logger.Warn("Failed to remove staged upload", "file_id", staged.ID, "error", err)
		}
	}()

	content, err := h.staging.Content(ctx, staged.ID)
	if err != nil {
		return nil, fmt.Errorf("read staged upload: %w", err)
	}
	return content, nil
}

// handleUploadPreflight handles OPTIONS /api/upload
func (h *Handler) handleUploadPreflight(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) setCORSHeaders(w http.ResponseWriter) {
	if !h.opts.CORS {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Expose-Headers", "X-Extraction-Id")
}

// parseTolerance reads the optional tolerance query parameter. Zero means
// "use the configured default".
func parseTolerance(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	tol, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("tolerance %q is not a number", raw)
	}
	if err := layout.ValidateTolerance(tol); err != nil {
		return 0, err
	}
	return tol, nil
}
