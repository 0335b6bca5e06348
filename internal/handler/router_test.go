package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/walletshop/walletshop/internal/handler/dto"
)

// withProductRoute mounts fn under /products/{productId}/price so URL params resolve.
func withProductRoute(fn http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Get("/products/{productId}/price", fn)
	return r
}

func containsJSONNull(body, field string) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return false
	}
	raw, ok := m[field]
	return ok && string(raw) == "null"
}

func TestRouter_FallbackHandlers(t *testing.T) {
	h := newTestDeps(t).router()

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"unknown path", http.MethodGet, "/api/nope", http.StatusNotFound, "NOT_FOUND"},
		{"wrong method", http.MethodDelete, "/api/discounts", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.target, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body dto.ErrorResponse
			decodeBody(t, rec, &body)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestRouter_GlobalMiddleware(t *testing.T) {
	h := newTestDeps(t).router()

	rec := do(h, http.MethodGet, "/health", "", "Origin", "https://shop.example.com", "X-Request-ID", "req-123")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want echoed value", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestRouter_CORSRejectsUnknownOrigin(t *testing.T) {
	h := newTestDeps(t).router()

	rec := do(h, http.MethodGet, "/health", "", "Origin", "https://evil.example.net")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	h := newTestDeps(t).router()

	huge := `{"title":"` + strings.Repeat("a", 2<<20) + `","body":"x"}`
	rec := do(h, http.MethodPost, "/api/notifications/send-to-admins", huge)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRouter_MetricsOptional(t *testing.T) {
	h := newTestDeps(t).router()

	if rec := do(h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when no metrics handler is wired", rec.Code)
	}
}
