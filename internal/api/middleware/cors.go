package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"algotutor/internal/common"
)

const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
	corsMaxAge       = "86400"
)

func SetCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Max-Age", corsMaxAge)
}

// CORS adds the access-control headers to every request under one of the
// given path prefixes. Preflight requests are answered with a bare 200 before
// anything downstream runs, and a downstream panic becomes a JSON 500.
func CORS(prefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !underAny(r.URL.Path, prefixes) {
				next.ServeHTTP(w, r)
				return
			}

			SetCORSHeaders(w)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				slog.Error("panic while serving request", "path", r.URL.Path, "panic", rvr, "stack", string(debug.Stack()))
				SetCORSHeaders(w)
				common.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func underAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = "/" + strings.Trim(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
