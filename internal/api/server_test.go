package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/mdxdigest/internal/config"
	"github.com/dgallion1/mdxdigest/internal/pipeline"
	"github.com/dgallion1/mdxdigest/internal/transform"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T, root string, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.CategoryA = config.Category{Name: "Patterns", Dir: filepath.Join(root, "patterns")}
	cfg.CategoryB = config.Category{Name: "Anti-Patterns", Dir: filepath.Join(root, "anti-patterns")}
	cfg.OutputPath = filepath.Join(root, "dist", "llms.txt")
	cfg.Banner = "<!-- generated -->"
	if mutate != nil {
		mutate(&cfg)
	}
	log := quietLogger()
	conv := transform.NewConverter(log)
	return NewServer(pipeline.NewOrchestrator(cfg, conv, log), conv, log, cfg)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("expected status ok body, got %q", got)
	}
}

func TestConvert_Structural(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)
	body := "import { Meta } from '@storybook/blocks';\n\n<Meta title=\"x\" />\n\n## Title\n"
	req := httptest.NewRequest(http.MethodPost, "/api/convert?name=title.mdx", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Conversion"); got != "structural" {
		t.Errorf("expected structural conversion, got %q", got)
	}
	if got := rec.Body.String(); got != "## Title\n" {
		t.Errorf("expected %q, got %q", "## Title\n", got)
	}
}

func TestConvert_ReportsDegraded(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader("<Canvas>\nkept\n"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Conversion"); got != "line-filter" {
		t.Errorf("expected line-filter conversion, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "kept") {
		t.Errorf("expected fallback text, got %q", rec.Body.String())
	}
}

func TestConvert_UnsupportedExtension(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/convert?name=report.pdf", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestConvert_TooLarge(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), func(c *config.Config) { c.MaxUploadBytes = 8 })
	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(strings.Repeat("a", 64)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestDigest_ServesDocumentWithETag(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patterns", "a.mdx"), "## A\n")
	srv := newTestServer(t, root, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/llms.txt", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := "<!-- generated -->\n\n# Patterns\n\n## A\n\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	etag := rec.Header().Get("ETag")
	if etag != `"`+pipeline.ContentHashHex([]byte(want))+`"` {
		t.Errorf("unexpected etag %q", etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/llms.txt", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("expected 304, got %d", rec.Code)
	}
}

func TestDigest_NothingToWrite(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/llms.txt", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestListFragments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patterns", "a.mdx"), "## A\n")
	writeFile(t, filepath.Join(root, "anti-patterns", "z.mdx"), "<Canvas>\n")
	srv := newTestServer(t, root, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fragments", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Count     int                       `json:"count"`
		Fragments []pipeline.FragmentReport `json:"fragments"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected 2 fragments, got %d", resp.Count)
	}
	if resp.Fragments[0].Category != "Patterns" || resp.Fragments[0].Degraded {
		t.Errorf("unexpected first report %+v", resp.Fragments[0])
	}
	if !resp.Fragments[1].Degraded {
		t.Errorf("expected second fragment degraded, got %+v", resp.Fragments[1])
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), func(c *config.Config) { c.APIKey = "secret" })

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader("text\n"))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	// Health stays public.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected public health check, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"guide.mdx", "guide.mdx"},
		{"../../etc/passwd", "passwd"},
		{"dir/nested.md", "nested.md"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
