package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/creditline/internal/database"
	"github.com/nao1215/creditline/internal/model"
)

const testPage = `<!DOCTYPE html>
<html><head><title>Gallery</title></head><body>
<div class="card-image-container"><img src="img/f22-001.jpg"></div>
<div class="card-image-container" data-id="b2-001"><img src="img/b2.jpg"></div>
</body></html>`

// setupServer creates a root directory with a page, an image and a
// sub-directory index, and a server over it.
func setupServer(t *testing.T, opts ...Option) (*Server, *State) {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"index.html":          testPage,
		"gallery/index.html":  testPage,
		"img/f22-001.jpg":     "not really a jpeg",
		"notes.txt":           "plain",
		"legacy/page.HTM":     testPage,
		"gallery/unused.json": "{}",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	state := NewState(nil, model.DefaultDisplayConfig())
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(root, state, opts...), state
}

// do sends a request to the server handler.
func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// TestHandlePage tests page annotation and static files.
func TestHandlePage(t *testing.T) {
	t.Parallel()

	s, _ := setupServer(t)

	t.Run("annotates html", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, http.MethodGet, "/index.html", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("unexpected content type %q", ct)
		}
		if rec.Header().Get("X-Creditline-Annotations") != "2" {
			t.Errorf("expected 2 annotations, got %q", rec.Header().Get("X-Creditline-Annotations"))
		}
		body := rec.Body.String()
		if !strings.Contains(body, "U.S. Air Force 2023") {
			t.Error("expected f22 label")
		}
		if !strings.Contains(body, model.StyleElementID) {
			t.Error("expected stylesheet")
		}
	})

	t.Run("directory index", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, http.MethodGet, "/gallery/", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), model.AnnotationClass) {
			t.Errorf("expected annotated index, got %d", rec.Code)
		}
	})

	t.Run("directory redirect", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, http.MethodGet, "/gallery", "")
		if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/gallery/" {
			t.Errorf("expected redirect to /gallery/, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("upper case extension", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, http.MethodGet, "/legacy/page.HTM", "")
		if !strings.Contains(rec.Body.String(), model.AnnotationClass) {
			t.Error("expected .HTM page to be annotated")
		}
	})

	t.Run("static file unchanged", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, http.MethodGet, "/notes.txt", "")
		if rec.Code != http.StatusOK || rec.Body.String() != "plain" {
			t.Errorf("expected plain file, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if rec := do(t, s, http.MethodGet, "/missing.html", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		t.Parallel()

		if rec := do(t, s, http.MethodGet, "/../../etc/passwd", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("etag", func(t *testing.T) {
		t.Parallel()

		first := do(t, s, http.MethodGet, "/index.html", "")
		etag := first.Header().Get("ETag")
		if etag == "" {
			t.Fatal("expected ETag")
		}

		req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
		req.Header.Set("If-None-Match", etag)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotModified {
			t.Errorf("expected 304, got %d", rec.Code)
		}
	})

	t.Run("head", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, http.MethodHead, "/index.html", "")
		if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
			t.Errorf("expected empty 200, got %d with %d bytes", rec.Code, rec.Body.Len())
		}
	})
}

// TestCopyrightAPI tests the table endpoints and their effect on pages.
func TestCopyrightAPI(t *testing.T) {
	t.Parallel()

	t.Run("put record re-labels pages", func(t *testing.T) {
		t.Parallel()

		s, _ := setupServer(t)
		rec := do(t, s, http.MethodPut, "/api/copyright/b2-001",
			`{"source":"Northrop","copyright":"Northrop Grumman","year":"1989"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var got recordResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.ID != "b2-001" || got.Record.Copyright != "Northrop Grumman" || !got.Matched {
			t.Errorf("unexpected response %+v", got)
		}

		page := do(t, s, http.MethodGet, "/index.html", "").Body.String()
		if !strings.Contains(page, "Northrop Grumman 1989") {
			t.Error("expected new record in page")
		}
	})

	t.Run("get record falls back to default", func(t *testing.T) {
		t.Parallel()

		s, _ := setupServer(t)
		var got recordResponse
		rec := do(t, s, http.MethodGet, "/api/copyright/nothing", "")
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.Matched || got.Record != model.DefaultRecord() {
			t.Errorf("expected default record, got %+v", got)
		}
	})

	t.Run("export import round trip", func(t *testing.T) {
		t.Parallel()

		s, state := setupServer(t)
		exported := do(t, s, http.MethodGet, "/api/copyright", "").Body.String()

		other, otherState := setupServer(t)
		do(t, other, http.MethodDelete, "/api/copyright/f22-001", "")
		rec := do(t, other, http.MethodPost, "/api/copyright", exported)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(otherState.Table()) != len(state.Table()) {
			t.Errorf("expected %d records after import, got %d", len(state.Table()), len(otherState.Table()))
		}
	})

	t.Run("malformed import leaves table", func(t *testing.T) {
		t.Parallel()

		s, state := setupServer(t)
		before := state.Table()
		rec := do(t, s, http.MethodPost, "/api/copyright", `{"broken":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(state.Table()) != len(before) {
			t.Error("expected table unchanged")
		}
	})

	t.Run("malformed record", func(t *testing.T) {
		t.Parallel()

		s, _ := setupServer(t)
		if rec := do(t, s, http.MethodPut, "/api/copyright/x", `[1,2]`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		s, state := setupServer(t)
		if rec := do(t, s, http.MethodDelete, "/api/copyright/f22-001", ""); rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if _, ok := state.Record("f22-001"); ok {
			t.Error("expected record to be removed")
		}
		if rec := do(t, s, http.MethodDelete, "/api/copyright/f22-001", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

// TestConfigAPI tests the configuration endpoints.
func TestConfigAPI(t *testing.T) {
	t.Parallel()

	s, state := setupServer(t)

	rec := do(t, s, http.MethodPatch, "/api/config", `{"position":"top-left","opacity":0.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cfg := state.Config()
	if cfg.Position != model.PositionTopLeft || cfg.Opacity != 0.5 || !cfg.ShowSource {
		t.Errorf("unexpected config %+v", cfg)
	}

	page := do(t, s, http.MethodGet, "/index.html", "").Body.String()
	if !strings.Contains(page, model.PositionClass(model.PositionTopLeft)) {
		t.Error("expected new position in page")
	}

	if rec := do(t, s, http.MethodPatch, "/api/config", `{"position":"middle"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid position, got %d", rec.Code)
	}
	if state.Config().Position != model.PositionTopLeft {
		t.Error("expected config unchanged after invalid patch")
	}

	var got model.DisplayConfig
	if err := json.Unmarshal(do(t, s, http.MethodGet, "/api/config", "").Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got != state.Config() {
		t.Errorf("expected %+v, got %+v", state.Config(), got)
	}
}

// TestHealth tests the health endpoint.
func TestHealth(t *testing.T) {
	t.Parallel()

	s, _ := setupServer(t)
	rec := do(t, s, http.MethodGet, "/api/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

// TestWithCatalog tests that API writes are persisted.
func TestWithCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog.Close() })

	s, _ := setupServer(t, WithCatalog(catalog))
	do(t, s, http.MethodPut, "/api/copyright/b2-001", `{"copyright":"Northrop Grumman"}`)
	do(t, s, http.MethodPost, "/api/copyright", `{"x-1":{"year":"2001"}}`)

	table, err := catalog.Table(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if table["b2-001"].Copyright != "Northrop Grumman" || table["x-1"].Year != "2001" {
		t.Errorf("unexpected catalog %v", table)
	}

	imports, err := catalog.ListImports(context.Background())
	if err != nil || len(imports) != 1 || imports[0].Origin != "api" {
		t.Errorf("expected one api import, got %v %v", imports, err)
	}
}

// TestServe tests graceful shutdown.
func TestServe(t *testing.T) {
	t.Parallel()

	s, _ := setupServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/healthz") //nolint:noctx // test request
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
