package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentSettlement, Output: &buf})

	logger.Info("settled", FieldDonationID, 7)
	out := buf.String()
	if !strings.Contains(out, "component=settlement") || !strings.Contains(out, "donation_id=7") {
		t.Fatalf("unexpected log line: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentAMQP).Warn("publish failed")
	if !strings.Contains(buf.String(), "component=amqp") {
		t.Fatalf("expected amqp component, got %s", buf.String())
	}
}

func TestRequestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})

	var seen string
	h := RequestMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pending", nil))

		id := rec.Header().Get(RequestIDHeader)
		if id == "" || id != seen {
			t.Fatalf("expected generated id in header and context, got %q / %q", id, seen)
		}
		if !strings.Contains(buf.String(), "status_code=418") || !strings.Contains(buf.String(), "request_id="+id) {
			t.Fatalf("expected completion log, got %s", buf.String())
		}
	})

	t.Run("reuses valid incoming id", func(t *testing.T) {
		const incoming = "6f1c2a1e-7a43-4c1b-9a55-1c8a1f0d2b3e"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, incoming)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if seen != incoming {
			t.Fatalf("expected %s, got %s", incoming, seen)
		}
	})

	t.Run("replaces garbage id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if seen == "<script>" {
			t.Fatal("expected a fresh id")
		}
	})
}
