package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"prodplan/internal/config"
	"prodplan/internal/store"
	"prodplan/internal/workbook"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()
	st, err := store.New(config.DatabasePath(cfg.Data.DataDir))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(cfg, st, workbook.NewGenerator(workbook.DefaultOptions()), logger)
	t.Cleanup(s.v1.Close)
	return s, cfg.Data.DataDir
}

func TestRoutesMountedUnderBothPrefixes(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/api/status", "/api/v1/status", "/"} {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status=%d body=%s", path, w.Code, w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown route status=%d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/plans/generate", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin=%q", got)
	}
}

func TestExportUsesDataDirAndV1Prefix(t *testing.T) {
	s, dataDir := newTestServer(t)
	body := `{"project":{"name":"Cell 7","goal":70,"startDate":"2024-05-01","endDate":"2024-05-07","resources":["R1"]}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/export", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"/api/v1/plans/download/`) {
		t.Fatalf("body=%s", w.Body.String())
	}

	matches, err := filepath.Glob(filepath.Join(config.ExportDir(dataDir), "*.xlsx"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("staged files=%v err=%v", matches, err)
	}
}
