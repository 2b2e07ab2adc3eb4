package request

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "", "1.2.3.4"},
		{"x-forwarded-for first", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, "", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "", "9.9.9.9"},
		{"remote addr", nil, "10.0.0.1:12345", "10.0.0.1:12345"},
		{"xff over xri", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, "", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			got := ClientIP(r)
			if got != tt.wantIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestCallerFromContext(t *testing.T) {
	t.Parallel()
	c := &Caller{UserID: uuid.New(), Subject: "user-sub", Issuer: "https://issuer.example.com"}
	ctx := WithCaller(context.Background(), c)
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	got := CallerFromContext(r)
	if got != c {
		t.Errorf("CallerFromContext() = %p, want %p", got, c)
	}
	id, ok := UserID(r)
	if !ok || id != c.UserID {
		t.Errorf("UserID() = %s, %v; want %s, true", id, ok, c.UserID)
	}
}

func TestCallerFromContext_NoCaller(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "/", nil)
	if got := CallerFromContext(r); got != nil {
		t.Errorf("CallerFromContext() = %+v, want nil", got)
	}
	if _, ok := UserID(r); ok {
		t.Error("UserID() should report no user")
	}
}

func TestCallerFromContext_WrongType(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), CallerContextKey(), "not a caller")
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	if got := CallerFromContext(r); got != nil {
		t.Errorf("CallerFromContext() = %+v, want nil when wrong type", got)
	}
}

func TestUserID_NilUUID(t *testing.T) {
	t.Parallel()
	ctx := WithCaller(context.Background(), &Caller{Subject: "x"})
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	if _, ok := UserID(r); ok {
		t.Error("UserID() should reject a nil user id")
	}
}
