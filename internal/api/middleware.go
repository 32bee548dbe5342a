package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/rs/cors"
)

// securityHeaders stamps the hardening headers on every response, error
// paths and preflights included.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// corsPolicy restricts origins to the allowed hosts in production and is
// wide open elsewhere. A production deployment without an explicit host
// list allows no cross-origin callers at all.
func corsPolicy(environment string, allowedHosts []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}

	if environment == "production" {
		if wildcardHosts(allowedHosts) {
			opts.AllowOriginFunc = func(origin string) bool { return false }
		} else {
			opts.AllowedOrigins = allowedHosts
		}
	} else {
		opts.AllowedOrigins = []string{"*"}
	}

	return cors.New(opts).Handler
}

func wildcardHosts(hosts []string) bool {
	return len(hosts) == 0 || (len(hosts) == 1 && hosts[0] == "*")
}

// recoverPanic converts an unhandled fault into the generic 500 body while
// keeping the cause server-side.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("internal error", "panic", rec, "path", r.URL.Path, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
