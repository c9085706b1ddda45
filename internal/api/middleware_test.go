package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer secret", "secret", true},
		{"Bearer ", "", false},
		{"Basic secret", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(r)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("header=%q: expected %q/%v, got %q/%v", tt.header, tt.want, tt.ok, got, ok)
		}
	}
}

func TestAccessLog_RecordsConversionMode(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	srv := newTestServer(t, t.TempDir(), nil)
	srv.log = log
	srv.setupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/api/convert?name=bad.mdx", strings.NewReader("<Canvas>\n"))
	srv.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if rec["msg"] == "request" {
			entry = rec
		}
	}
	if entry == nil {
		t.Fatalf("expected a request log entry, got %q", buf.String())
	}
	if entry["conversion"] != "line-filter" {
		t.Errorf("expected conversion %q, got %v", "line-filter", entry["conversion"])
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("expected status 200, got %v", entry["status"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("expected a request id")
	}
}
