package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nao1215/creditline/internal/model"
	"github.com/nao1215/creditline/internal/pipeline"
)

// recordResponse is the body of the record endpoints.
type recordResponse struct {
	ID      string                `json:"id"`
	Record  model.CopyrightRecord `json:"record"`
	Matched bool                  `json:"matched"`
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

// writeError writes {"error": msg} with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readBody reads a request body up to MaxImportSize.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImportSize))
}

// handleHealth reports liveness and the table size.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": len(s.state.Table()),
	})
}

// handleExport returns the metadata table in the export format.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	data, err := s.state.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data) //nolint:errcheck // client went away
}

// handleImport merges the request body over the metadata table.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	t, err := s.state.Import(data)
	if err != nil {
		s.logger.Error("failed to import copyright data", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.catalog != nil {
		if _, err := s.catalog.ImportTable(r.Context(), t, "api"); err != nil {
			s.logger.Warn("failed to persist import", "error", err)
		}
	}

	s.logger.Info("copyright data imported", "records", len(t))
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(t)})
}

// handleGetRecord returns the record shown for an identifier, which is the
// default record when the table has no entry.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.state.Record(id)
	if !ok {
		rec = model.DefaultRecord()
	}
	writeJSON(w, http.StatusOK, recordResponse{ID: id, Record: rec, Matched: ok})
}

// handlePutRecord merges a partial record into the table.
func (s *Server) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	var patch model.RecordPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed record: "+err.Error())
		return
	}

	rec := s.state.PutRecord(id, patch)
	if s.catalog != nil {
		if err := s.catalog.UpsertRecord(r.Context(), id, rec); err != nil {
			s.logger.Warn("failed to persist record", "id", id, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, recordResponse{ID: id, Record: rec, Matched: true})
}

// handleDeleteRecord removes a record from the table.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.state.DeleteRecord(id) {
		writeError(w, http.StatusNotFound, "no record for "+id)
		return
	}
	if s.catalog != nil {
		if _, err := s.catalog.DeleteRecord(r.Context(), id); err != nil {
			s.logger.Warn("failed to delete persisted record", "id", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetConfig returns the display configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Config())
}

// handlePatchConfig merges a partial configuration.
func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	var patch model.ConfigPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed configuration: "+err.Error())
		return
	}

	cfg, err := s.state.UpdateConfig(patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// isHTML reports whether name is served through the annotator.
func isHTML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

// handlePage serves a file under root. HTML files are annotated; anything
// else is served unchanged.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	fs := http.Dir(s.root)

	f, err := fs.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if info.IsDir() {
		// Relative image sources resolve against the page URL.
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		name = path.Join(name, "index.html")
		index, err := fs.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer index.Close()
		f = index
		if info, err = f.Stat(); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
	}

	if !isHTML(name) {
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
		return
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxPageSize+1))
	if err != nil {
		http.Error(w, "failed to read page", http.StatusInternalServerError)
		return
	}
	if len(data) > MaxPageSize {
		http.Error(w, "page too large", http.StatusRequestEntityTooLarge)
		return
	}

	pageURL := &url.URL{Scheme: scheme(r), Host: r.Host, Path: r.URL.Path}
	var buf bytes.Buffer
	res, err := pipeline.AnnotateDocument(r.Context(), bytes.NewReader(data), &buf,
		s.state.Settings(pageURL), pipeline.WithLogger(s.logger))
	if err != nil {
		s.logger.Error("failed to annotate page", "path", name, "error", err)
		if errors.Is(err, r.Context().Err()) {
			return
		}
		http.Error(w, "failed to annotate page", http.StatusInternalServerError)
		return
	}

	etag := `"` + res.OutputHash + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Creditline-Annotations", strconv.Itoa(len(res.Annotations)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(buf.Bytes()) //nolint:errcheck // client went away
	}
}

// scheme returns the scheme the client used.
func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		return p
	}
	return "http"
}
