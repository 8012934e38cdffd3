package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type contextKey int

const loginKey contextKey = iota

// IdentityFunc maps a request's remote address to a login name.
type IdentityFunc func(ctx context.Context, remoteAddr string) (string, error)

// Identity returns middleware that stores the caller's login in the request
// context. Without a resolver, or when resolution fails, the login is "local".
func Identity(resolver func() IdentityFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			login := "local"
			if fn := resolver(); fn != nil {
				if name, err := fn(r.Context(), r.RemoteAddr); err == nil && name != "" {
					login = name
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loginKey, login)))
		})
	}
}

func loginFromContext(r *http.Request) string {
	if login, ok := r.Context().Value(loginKey).(string); ok {
		return login
	}
	return "local"
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"user", loginFromContext(r),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS lets trusted origins read the API. Preflights asking for any method
// other than GET are refused, so other sites cannot write.
func CORS(trusted func(origin string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if origin == "" || !trusted(origin) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if preflight {
				if r.Header.Get("Access-Control-Request-Method") != http.MethodGet {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers behind the logger push partial responses.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
