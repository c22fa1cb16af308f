// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leseb/pdf-columns/pkg/core/schema"
	"github.com/leseb/pdf-columns/pkg/core/services"
	fsmemory "github.com/leseb/pdf-columns/pkg/filestore/memory"
	"github.com/leseb/pdf-columns/pkg/layout"
	"github.com/leseb/pdf-columns/pkg/pdftext"
	"github.com/leseb/pdf-columns/pkg/pdftext/pdftexttest"
	"github.com/leseb/pdf-columns/pkg/storage"
	"github.com/leseb/pdf-columns/pkg/storage/memory"
)

type testEnv struct {
	handler *Handler
	staging *fsmemory.Store
	records *memory.Store
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	staging := fsmemory.New()
	records := memory.New()
	svc := services.NewColumnService(pdftext.New(pdftext.NewDecoder()), records, layout.DefaultTolerance, nil)
	return &testEnv{
		handler: New(svc, staging, nil, opts),
		staging: staging,
		records: records,
	}
}

// stagedCount reports how many uploads are still held in staging.
func (e *testEnv) stagedCount(t *testing.T) int {
	t.Helper()
	n, err := e.staging.Sweep(context.Background(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	return n
}

type formFile struct {
	field, name string
	content     []byte
}

func multipartBody(t *testing.T, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(f.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.WriteField("note", "ignored"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func samplePDF() []byte {
	return pdftexttest.OnePage(
		pdftexttest.Text{X: 72, Y: 700, S: "Invoice"},
		pdftexttest.Text{X: 300, Y: 700, S: "Amount"},
		pdftexttest.Text{X: 72, Y: 650, S: "Widgets"},
		pdftexttest.Text{X: 400, Y: 600, S: " "},
	)
}

func upload(t *testing.T, h http.Handler, target string, files ...formFile) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) schema.ErrorResponse {
	t.Helper()
	var resp schema.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestUpload_Success(t *testing.T) {
	env := newTestEnv(t, Options{CORS: true})

	rec := upload(t, env.handler, "/api/upload", formFile{"pdf", "invoice.pdf", samplePDF()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS origin header on upload response")
	}
	if rec.Header().Get("X-Extraction-Id") == "" {
		t.Error("expected X-Extraction-Id header")
	}

	var got map[string][]layout.Item
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 columns, got %d: %v", len(got), got)
	}
	left := got["80"]
	if len(left) != 2 || left[0].Text != "Invoice" || left[1].Text != "Widgets" {
		t.Errorf("column 80 = %+v", left)
	}
	right := got["320"]
	if len(right) != 1 || right[0].Text != "Amount" || right[0].X != 300 || right[0].Y != 700 {
		t.Errorf("column 320 = %+v", right)
	}

	if n := env.stagedCount(t); n != 0 {
		t.Errorf("expected staging to be empty, %d files left", n)
	}
}

func TestUpload_KeysInAscendingOrder(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := upload(t, env.handler, "/api/upload", formFile{"pdf", "invoice.pdf", samplePDF()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if i, j := strings.Index(body, `"80"`), strings.Index(body, `"320"`); i < 0 || j < 0 || i > j {
		t.Errorf("expected key 80 before 320 in %s", body)
	}
}

func TestUpload_ToleranceOverride(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := upload(t, env.handler, "/api/upload?tolerance=1000", formFile{"pdf", "invoice.pdf", samplePDF()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string][]layout.Item
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got["0"]) != 3 || len(got) != 1 {
		t.Errorf("expected all items under key 0, got %v", got)
	}
}

func TestUpload_InvalidTolerance(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, q := range []string{"abc", "0", "-5", "NaN"} {
		rec := upload(t, env.handler, "/api/upload?tolerance="+q, formFile{"pdf", "a.pdf", samplePDF()})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("tolerance=%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestUpload_NoFile(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name string
		req  func() *http.Request
	}{
		{
			name: "no file part",
			req: func() *http.Request {
				body, ct := multipartBody(t)
				r := httptest.NewRequest(http.MethodPost, "/api/upload", body)
				r.Header.Set("Content-Type", ct)
				return r
			},
		},
		{
			name: "wrong field name",
			req: func() *http.Request {
				body, ct := multipartBody(t, formFile{"document", "a.pdf", samplePDF()})
				r := httptest.NewRequest(http.MethodPost, "/api/upload", body)
				r.Header.Set("Content-Type", ct)
				return r
			},
		},
		{
			name: "not multipart",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, tt.req())
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if resp := decodeError(t, rec); resp.Error != "No PDF file uploaded" {
				t.Errorf("error = %q", resp.Error)
			}
		})
	}
}

func TestUpload_FirstOfManyFiles(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := upload(t, env.handler, "/api/upload",
		formFile{"pdf", "first.pdf", samplePDF()},
		formFile{"pdf", "second.pdf", []byte("not a pdf")},
	)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	r, err := env.records.Get(context.Background(), rec.Header().Get("X-Extraction-Id"))
	if err != nil {
		t.Fatalf("Get record: %v", err)
	}
	if r.Filename != "first.pdf" {
		t.Errorf("filename = %q, want first.pdf", r.Filename)
	}
}

func TestUpload_NotAPDF(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := upload(t, env.handler, "/api/upload", formFile{"pdf", "notes.txt", []byte("hello, world")})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeError(t, rec)
	if resp.Error != "Failed to process PDF" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Details == "" {
		t.Error("expected details")
	}
	if n := env.stagedCount(t); n != 0 {
		t.Errorf("expected staging to be empty, %d files left", n)
	}

	records, _, err := env.records.List(context.Background(), "", 10, "desc")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].Status != "failed" {
		t.Errorf("expected one failed record, got %+v", records)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	env := newTestEnv(t, Options{MaxUploadBytes: 512})

	big := bytes.Repeat([]byte("x"), 4096)
	rec := upload(t, env.handler, "/api/upload", formFile{"pdf", "big.pdf", big})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeError(t, rec); resp.Error != "Failed to process PDF" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestUpload_CustomField(t *testing.T) {
	env := newTestEnv(t, Options{UploadField: "document"})

	rec := upload(t, env.handler, "/api/upload", formFile{"document", "a.pdf", samplePDF()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, Options{CORS: true})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		req := httptest.NewRequest(method, "/api/upload", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", method, rec.Code)
			continue
		}
		if resp := decodeError(t, rec); resp.Error != "Method not allowed" {
			t.Errorf("%s: error = %q", method, resp.Error)
		}
	}
}

func TestUpload_Preflight(t *testing.T) {
	env := newTestEnv(t, Options{CORS: true})

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestUpload_PreflightWithoutCORS(t *testing.T) {
	env := newTestEnv(t, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestExtractions(t *testing.T) {
	env := newTestEnv(t, Options{})

	var ids []string
	for i := 0; i < 3; i++ {
		rec := upload(t, env.handler, "/api/upload", formFile{"pdf", "invoice.pdf", samplePDF()})
		if rec.Code != http.StatusOK {
			t.Fatalf("upload %d: %d", i, rec.Code)
		}
		ids = append(ids, rec.Header().Get("X-Extraction-Id"))
	}

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/extractions?limit=2&order=asc", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp schema.ListExtractionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Data) != 2 || !resp.HasMore {
			t.Fatalf("expected 2 items with more, got %d has_more=%v", len(resp.Data), resp.HasMore)
		}
		if resp.Object != "list" || resp.FirstID != resp.Data[0].ID || resp.LastID != resp.Data[1].ID {
			t.Errorf("unexpected envelope: %+v", resp)
		}
		for _, e := range resp.Data {
			if e.Status != "succeeded" || e.ItemCount != 3 || e.ColumnCount != 2 {
				t.Errorf("unexpected extraction: %+v", e)
			}
		}
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/extractions/"+ids[1], nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var e schema.Extraction
		if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if e.ID != ids[1] || e.Filename != "invoice.pdf" || e.Tolerance != 40 {
			t.Errorf("unexpected extraction: %+v", e)
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/extractions/missing", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("bad order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/extractions?order=sideways", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "healthy") {
		t.Errorf("unexpected body %s", body)
	}
}

func TestOpenAPI(t *testing.T) {
	env := newTestEnv(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatalf("missing paths in %v", doc)
	}
	if _, ok := paths["/api/upload"]; !ok {
		t.Error("expected /api/upload in OpenAPI paths")
	}
}

func TestNormalizeUpload(t *testing.T) {
	a := &multipart.FileHeader{Filename: "a.pdf"}
	b := &multipart.FileHeader{Filename: "b.pdf"}

	tests := []struct {
		name    string
		headers []*multipart.FileHeader
		want    string
		wantErr bool
	}{
		{"none", nil, "", true},
		{"one", []*multipart.FileHeader{a}, "a.pdf", false},
		{"many", []*multipart.FileHeader{a, b}, "a.pdf", false},
		{"nil entry", []*multipart.FileHeader{nil}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeUpload(fieldFrom(tt.headers))
			if tt.wantErr {
				if err != ErrNoFile {
					t.Fatalf("expected ErrNoFile, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Filename != tt.want {
				t.Errorf("got %q, want %q", got.Filename, tt.want)
			}
		})
	}
}

func TestUpload_OverflowingGeometry(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := upload(t, env.handler, "/api/upload", formFile{"pdf", "overflow.pdf", pdftexttest.Overflow()})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %q", rec.Code, rec.Body.String())
	}
	resp := decodeError(t, rec)
	if resp.Error != "Failed to process PDF" || resp.Details == "" {
		t.Errorf("unexpected error body: %+v", resp)
	}
	if rec.Header().Get("X-Extraction-Id") != "" {
		t.Error("failed upload should not carry an extraction ID")
	}
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := httptest.NewRecorder()
	env.handler.writeJSON(rec, http.StatusOK, map[string]float64{"x": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Details == "" {
		t.Errorf("expected details, got %+v", resp)
	}
}

func TestListExtractions_LimitCapped(t *testing.T) {
	env := newTestEnv(t, Options{})

	base := time.Now()
	for i := 0; i < 105; i++ {
		err := env.records.Append(context.Background(), &storage.Record{
			ID:        fmt.Sprintf("rec-%03d", i),
			Filename:  "a.pdf",
			Status:    storage.StatusSucceeded,
			Tolerance: 40,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"limit=500", 100},
		{"limit=100", 100},
		{"limit=7", 7},
		{"limit=0", 20},
		{"limit=-3", 20},
		{"limit=abc", 20},
		{"", 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/extractions?"+tt.query, nil)
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var resp schema.ListExtractionsResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Data) != tt.want || !resp.HasMore {
				t.Errorf("got %d items has_more=%v, want %d with more", len(resp.Data), resp.HasMore, tt.want)
			}
		})
	}
}
