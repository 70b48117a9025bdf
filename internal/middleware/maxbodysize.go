package middleware

import "net/http"

// NewMaxBodySizeHandler returns a middleware that caps request body size at
// maxBytes. Requests advertising a larger Content-Length are rejected with
// 413 before the handler runs; bodies without a Content-Length are wrapped
// with http.MaxBytesReader so the read fails inside the handler once the
// limit is exceeded.
func NewMaxBodySizeHandler(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
