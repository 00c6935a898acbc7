package daemon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"mediastore/internal/config"
	"mediastore/internal/logging"
	"mediastore/internal/testsupport"
)

func newTestServer(t *testing.T, opts ...testsupport.ConfigOption) (*apiServer, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenCatalog(t, cfg)
	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d.api, cfg
}

func multipartUpload(t *testing.T, path, filename, mimeType, folder string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if folder != "" {
		if err := writer.WriteField("folder", folder); err != nil {
			t.Fatalf("write folder field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestMediaUploadFetchDeleteRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	png := testsupport.MakePNG(t, 500, 500)

	w := httptest.NewRecorder()
	srv.handleMedia(w, multipartUpload(t, "/api/media", "photo.png", "image/png", "gallery", png))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created mediaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Media == nil || created.Media.ID == 0 {
		t.Fatalf("unexpected upload response: %s", w.Body.String())
	}
	if created.Media.ThumbnailURL == "" {
		t.Fatal("expected thumbnail url for image upload")
	}

	w = httptest.NewRecorder()
	srv.handleMediaItem(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/media/%d", created.Media.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.handleMedia(w, httptest.NewRequest(http.MethodGet, "/api/media?folder=gallery", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list mediaListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Pagination.Total != 1 {
		t.Fatalf("unexpected listing: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.handleMediaItem(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/media/%d", created.Media.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.handleMediaItem(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/media/%d", created.Media.ID), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestMediaUploadRejectsBadType(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleMedia(w, multipartUpload(t, "/api/media", "tool.exe", "application/octet-stream", "", []byte("MZ")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMediaUploadRejectsTraversalFolder(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleMedia(w, multipartUpload(t, "/api/media", "a.png", "image/png", "../../etc", []byte("x")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMediaUploadRequiresFilePart(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/media", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=zzz")
	w := httptest.NewRecorder()
	srv.handleMedia(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMediaItemInvalidID(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleMediaItem(w, httptest.NewRequest(http.MethodGet, "/api/media/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.handleMediaItem(w, httptest.NewRequest(http.MethodGet, "/api/media/", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestVariantsCreateAndDelete(t *testing.T) {
	srv, _ := newTestServer(t)
	png := testsupport.MakePNG(t, 2000, 1000)

	w := httptest.NewRecorder()
	srv.handleVariants(w, multipartUpload(t, "/api/variants", "photo.png", "image/png", "projects", png))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created variantResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Variants == nil || created.Variants.Subfolder == "" {
		t.Fatalf("unexpected variant response: %s", w.Body.String())
	}
	if created.Variants.Thumbnail.URL == "" || created.Variants.Large.Width != 1920 {
		t.Fatalf("unexpected variant set: %+v", created.Variants)
	}

	path := fmt.Sprintf("/api/variants?folder=projects&subfolder=%s", created.Variants.Subfolder)
	w = httptest.NewRecorder()
	srv.handleVariants(w, httptest.NewRequest(http.MethodDelete, path, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStorageStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleMedia(w, multipartUpload(t, "/api/media", "doc.pdf", "application/pdf", "docs", []byte("%PDF-1.4 body")))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.handleStorageStats(w, httptest.NewRequest(http.MethodGet, "/api/storage/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload struct {
		Disk struct {
			TotalCount int   `json:"totalCount"`
			TotalBytes int64 `json:"totalBytes"`
		} `json:"disk"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if payload.Disk.TotalCount != 1 || payload.Disk.TotalBytes == 0 {
		t.Fatalf("unexpected stats: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.handleStorageStats(w, httptest.NewRequest(http.MethodGet, "/api/storage/stats?folder=missing", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for missing folder, got %d", w.Code)
	}
	var folderPayload struct {
		Bytes int64 `json:"bytes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &folderPayload); err != nil {
		t.Fatalf("decode folder stats: %v", err)
	}
	if folderPayload.Bytes != 0 {
		t.Fatalf("expected 0 bytes for missing folder, got %d", folderPayload.Bytes)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestRequestIDAssigned(t *testing.T) {
	srv, _ := newTestServer(t)

	handler := srv.withRequestID(srv.handleStatus)
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id header")
	}
}
