package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const callerContextKey contextKey = "caller"

// Caller is the authenticated principal of a request
type Caller struct {
	UserID  uuid.UUID
	Subject string
	Issuer  string
}

// CallerContextKey returns the context key used for the caller. Exposed for tests that inject non-caller values.
func CallerContextKey() contextKey { return callerContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithCaller returns a context with the caller attached.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext returns the caller from the request context, or nil if missing or wrong type.
func CallerFromContext(r *http.Request) *Caller {
	c, _ := r.Context().Value(callerContextKey).(*Caller)
	return c
}

// UserID returns the caller's user id and whether one is present
func UserID(r *http.Request) (uuid.UUID, bool) {
	c := CallerFromContext(r)
	if c == nil || c.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return c.UserID, true
}
