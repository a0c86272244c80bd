// Package httputil holds request helpers shared by the HTTP middleware and
// handlers.
package httputil

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// maxRequestID bounds a caller supplied request id.
const maxRequestID = 128

// RequestID returns the caller's request id when it is short and printable,
// and a new random UUID otherwise.
func RequestID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if id == "" || len(id) > maxRequestID {
		return uuid.NewString()
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return uuid.NewString()
		}
	}
	return id
}

// ClientIP returns the address of the client. With trustProxy set, the first
// valid address in X-Forwarded-For, then X-Real-IP, wins over RemoteAddr.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
