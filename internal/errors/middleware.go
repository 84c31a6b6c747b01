package errors

import (
	"net/http"
)

// HandlerFunc is an HTTP handler that reports failures as an error instead of
// writing the response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Wrap adapts fn to http.HandlerFunc, rendering any returned error as RFC 7807.
func (h *ErrorHandler) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.HandleError(w, r, err)
		}
	}
}

// RecoveryMiddleware provides panic recovery with proper error responses
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					handler.HandlePanic(w, r, err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
