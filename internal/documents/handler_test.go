package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, svc *Service, userID, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("requestId", "test-request")
		if userID != "" {
			c.Set("userId", userID)
		}
		if role != "" {
			c.Set("userRole", role)
		}
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

type formFile struct {
	name string
	body string
}

func multipartBody(t *testing.T, fields map[string]string, files []formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, f.body); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func postDocuments(t *testing.T, r *gin.Engine, fields map[string]string, files []formFile) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStoreEndpointCreatesDocuments(t *testing.T) {
	svc, _, _, _ := testService(t)
	r := newTestRouter(t, svc, "user-1", "")

	rec := postDocuments(t, r,
		map[string]string{"documentable_type": "client", "documentable_id": "owner-1"},
		[]formFile{{"a.txt", "alpha"}, {"b.txt", "beta"}},
	)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(resp))
	}
	if resp[0].FileName != "a.txt" || resp[1].FileName != "b.txt" {
		t.Fatalf("responses out of order: %s, %s", resp[0].FileName, resp[1].FileName)
	}
	if resp[0].CreatedBy != "user-1" {
		t.Fatalf("created_by must come from the authenticated user, got %s", resp[0].CreatedBy)
	}
}

func TestStoreEndpointDuplicateConflict(t *testing.T) {
	svc, _, _, _ := testService(t)
	r := newTestRouter(t, svc, "user-1", "")

	if rec := postDocuments(t, r,
		map[string]string{"documentable_type": "client", "documentable_id": "owner-1"},
		[]formFile{{"report.pdf", "v1"}},
	); rec.Code != http.StatusCreated {
		t.Fatalf("seed upload failed: %d", rec.Code)
	}

	rec := postDocuments(t, r,
		map[string]string{"documentable_type": "client", "documentable_id": "owner-1"},
		[]formFile{{"report.pdf", "v2"}},
	)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Conflicting []string `json:"conflicting"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Code != "duplicate_files" {
		t.Fatalf("wrong error code %q", resp.Error.Code)
	}
	if len(resp.Error.Details.Conflicting) != 1 || resp.Error.Details.Conflicting[0] != "report.pdf" {
		t.Fatalf("wrong conflicting names %v", resp.Error.Details.Conflicting)
	}
}

func TestStoreEndpointUnknownOwner(t *testing.T) {
	svc, _, _, _ := testService(t)
	r := newTestRouter(t, svc, "user-1", "")

	rec := postDocuments(t, r,
		map[string]string{"documentable_type": "client", "documentable_id": "missing"},
		[]formFile{{"a.txt", "x"}},
	)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStoreEndpointValidation(t *testing.T) {
	svc, _, _, _ := testService(t)
	r := newTestRouter(t, svc, "user-1", "")

	rec := postDocuments(t, r,
		map[string]string{"documentable_id": "owner-1"},
		[]formFile{{"a.txt", "x"}},
	)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing type: expected 400, got %d", rec.Code)
	}

	rec = postDocuments(t, r,
		map[string]string{"documentable_type": "client", "documentable_id": "owner-1"},
		nil,
	)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no files: expected 400, got %d", rec.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	svc, _, _, _ := testService(t)
	r := newTestRouter(t, svc, "user-1", "")

	if rec := postDocuments(t, r,
		map[string]string{"documentable_type": "client", "documentable_id": "owner-1"},
		[]formFile{{"contract.pdf", "x"}, {"summary.txt", "y"}},
	); rec.Code != http.StatusCreated {
		t.Fatalf("seed upload failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?documentable_type=client&documentable_id=owner-1&search=contract", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp[0].FileName != "contract.pdf" {
		t.Fatalf("unexpected search result %v", resp)
	}
}

func TestListEndpointMissingFilter(t *testing.T) {
	svc, _, _, _ := testService(t)
	r := newTestRouter(t, svc, "user-1", "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	svc, _, _, _ := testService(t)
	creator := newTestRouter(t, svc, "user-1", "")
	stranger := newTestRouter(t, svc, "user-2", "")

	rec := postDocuments(t, creator,
		map[string]string{"documentable_type": "client", "documentable_id": "owner-1"},
		[]formFile{{"a.txt", "alpha"}},
	)
	var created []DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := created[0].DocumentID

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id+"/download", nil)
	rec = httptest.NewRecorder()
	creator.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("creator download: expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "alpha" {
		t.Fatalf("wrong body %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="a.txt"` {
		t.Fatalf("wrong content disposition %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id+"/download", nil)
	rec = httptest.NewRecorder()
	stranger.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger download: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/missing/download", nil)
	rec = httptest.NewRecorder()
	creator.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing document: expected 404, got %d", rec.Code)
	}
}

func TestDestroyEndpoint(t *testing.T) {
	svc, repo, _, _ := testService(t)
	creator := newTestRouter(t, svc, "user-1", "")
	admin := newTestRouter(t, svc, "admin-1", "admin")

	rec := postDocuments(t, creator,
		map[string]string{"documentable_type": "client", "documentable_id": "owner-1"},
		[]formFile{{"a.txt", "alpha"}, {"b.txt", "beta"}},
	)
	var created []DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+created[0].DocumentID, nil)
	rec = httptest.NewRecorder()
	creator.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("creator destroy: expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+created[1].DocumentID, nil)
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin destroy: expected 204, got %d", rec.Code)
	}

	if _, err := repo.GetByID(context.Background(), created[0].DocumentID); err == nil {
		t.Fatal("destroyed document must be gone")
	}
}
