package health

import (
	"log/slog"
	"net/http"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readyz returns a handler that answers 200 "ready\n" while probe succeeds
// and 503 otherwise.
func Readyz(logger *slog.Logger, probe func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if err := probe(); err != nil {
			logger.Warn("readiness probe failed", "component", "health", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
	}
}
