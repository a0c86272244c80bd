package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Config holds authentication configuration.
type Config struct {
	Enabled bool
	Tokens  []string
}

// exemptPaths are always public regardless of auth configuration.
var exemptPaths = map[string]bool{
	"/healthz":     true,
	"/readyz":      true,
	"/metrics":     true,
	"/api/v1/test": true,
}

// credential extracts the token from "Authorization: Bearer <t>" or, failing
// that, from X-API-Key.
func credential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// valid compares token against every configured token in constant time.
func valid(token string, tokens []string) bool {
	if token == "" {
		return false
	}
	ok := 0
	for _, t := range tokens {
		ok |= subtle.ConstantTimeCompare([]byte(token), []byte(t))
	}
	return ok == 1
}

// Middleware returns an HTTP middleware that enforces token auth on
// non-exempt paths when auth is enabled.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if !valid(credential(r), cfg.Tokens) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="astro"`)
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
