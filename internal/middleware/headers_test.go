package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected nosniff header")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.TLS = &tls.ConnectionState{}
	w = httptest.NewRecorder()
	SecurityHeaders(true)(okHandler()).ServeHTTP(w, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("Expected HSTS header over TLS when enabled")
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{name: "json body", method: "POST", body: "{}", contentType: "application/json", want: http.StatusOK},
		{name: "json with charset", method: "POST", body: "{}", contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "empty body without header", method: "POST", want: http.StatusOK},
		{name: "missing header", method: "POST", body: "{}", want: http.StatusBadRequest},
		{name: "wrong type", method: "POST", body: "x", contentType: "text/plain", want: http.StatusUnsupportedMediaType},
		{name: "GET ignored", method: "GET", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/api/v1/tracking/start", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentType(okHandler()).ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	handler := MaxRequestSize(8)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("0123456789")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("small")))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	if got := FrameRequestLimit(3000); got != 3000*4/3+4096 {
		t.Errorf("FrameRequestLimit() = %d", got)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})
	handler := Timeout(20 * time.Millisecond)(slow)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/tracking/current", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 on timeout", w.Code)
	}

	var sawDeadline bool
	upgradeHandler := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/api/v1/tracking/stream", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	upgradeHandler.ServeHTTP(w, req)
	if sawDeadline {
		t.Error("websocket upgrades must not get a request deadline")
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://app.example.com"})(okHandler())

	preflights := []struct {
		path   string
		method string
	}{
		{path: "/api/v1/tracking/start", method: "POST"},
		{path: "/api/v1/profile", method: "PUT"},
	}
	for _, pf := range preflights {
		req := httptest.NewRequest("OPTIONS", pf.path, nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", pf.method)
		// browsers send the header list lowercased and comma-joined
		req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("%s %s: Allow-Origin = %q", pf.method, pf.path, got)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != pf.method {
			t.Errorf("%s %s: Allow-Methods = %q, want %q", pf.method, pf.path, got, pf.method)
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "authorization,content-type" {
			t.Errorf("%s %s: Allow-Headers = %q", pf.method, pf.path, got)
		}
	}

	req := httptest.NewRequest("GET", "/api/v1/tracking/current", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for disallowed origin = %q, want empty", got)
	}
}
