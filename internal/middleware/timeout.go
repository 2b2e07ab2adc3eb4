package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultRequestTimeout bounds REST handlers. Long-lived streams are exempt.
const DefaultRequestTimeout = 30 * time.Second

const timeoutBody = `{"success":false,"error":"Request Timeout"}`

// Timeout enforces a deadline on request handlers. Websocket upgrades pass through
// untouched since http.TimeoutHandler cannot hijack the connection.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		limited := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
