package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize is the default maximum request body size (1MB)
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize limits request bodies to maxBytes. Frames arrive base64 encoded,
// so callers size this from the frame limit plus encoding overhead.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// FrameRequestLimit returns the body limit needed to carry a frame of maxFrameBytes
// as a base64 data URI inside a JSON envelope.
func FrameRequestLimit(maxFrameBytes int64) int64 {
	return maxFrameBytes*4/3 + 4096
}
