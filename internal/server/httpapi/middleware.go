package httpapi

import (
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// Logging writes one access log line per request. 5xx responses are logged
// as errors and 4xx as warnings.
func Logging(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", sanitizePath(r.URL.Path),
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes_written", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			}

			switch {
			case status >= 500:
				log.Error(r.Context(), "http request", args...)
			case status >= 400:
				log.Warn(r.Context(), "http request", args...)
			default:
				log.Info(r.Context(), "http request", args...)
			}
		})
	}
}

// sanitizePath masks the token segment of password reset links.
func sanitizePath(path string) string {
	const prefix = "/reset_password/"
	if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
		return prefix + "***"
	}
	return path
}

// Recovery turns a panic into a 500 response and logs the stack.
func Recovery(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.Error(r.Context(), "panic recovered",
						"error", p,
						"method", r.Method,
						"path", sanitizePath(r.URL.Path),
						"stack", string(debug.Stack()),
					)
					writeError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LoadSession puts the session identity, if any, into the request context.
func LoadSession(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := sessions.Current(r); u != nil {
				r = r.WithContext(withIdentity(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps the request body at n bytes. Reading past the cap fails
// with *http.MaxBytesError.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()) == nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
}
