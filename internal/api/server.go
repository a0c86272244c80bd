package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/astroahava/astro-sweph/internal/auth"
	"github.com/astroahava/astro-sweph/internal/health"
	"github.com/astroahava/astro-sweph/internal/httputil"
	"github.com/astroahava/astro-sweph/internal/metrics"
	"github.com/astroahava/astro-sweph/internal/report"
)

// Options configures the HTTP surface.
type Options struct {
	Auth       auth.Config
	TrustProxy bool

	// MaxCapacity is the largest document capacity a request may ask for.
	MaxCapacity int

	// MaxInflightBytes bounds the output buffers of concurrent requests.
	MaxInflightBytes int64

	// HouseSystem is used when a request names none.
	HouseSystem byte

	// Ready backs /readyz. Nil means always ready.
	Ready func() error
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, gen *report.Generator, opts Options) *Server {
	if opts.HouseSystem == 0 {
		opts.HouseSystem = 'P'
	}
	if opts.MaxCapacity <= 0 {
		opts.MaxCapacity = 1 << 20
	}
	if opts.MaxInflightBytes <= 0 {
		opts.MaxInflightBytes = 64 << 20
	}
	ready := opts.Ready
	if ready == nil {
		ready = func() error { return nil }
	}

	h := &handlers{
		logger:      logger,
		gen:         gen,
		budget:      newBudget(opts.MaxInflightBytes),
		maxCapacity: opts.MaxCapacity,
		houseSystem: opts.HouseSystem,
	}

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(logger, ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/test", h.test)
	mux.HandleFunc("GET /api/v1/chart", h.chart)
	mux.HandleFunc("GET /api/v1/planets", h.planets)
	mux.HandleFunc("GET /api/v1/planets/{id}", h.planet)
	mux.HandleFunc("GET /api/v1/houses", h.houses)
	mux.HandleFunc("GET /api/v1/nodes", h.nodes)
	mux.HandleFunc("GET /api/v1/nodes/{id}", h.node)
	mux.HandleFunc("GET /api/v1/asteroids", h.asteroids)
	mux.HandleFunc("GET /api/v1/julian-day", h.julianDay)
	mux.HandleFunc("GET /api/v1/dms", h.dms)
	mux.HandleFunc("GET /api/v1/ephemeris", h.ephemeris)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(opts.Auth)(handler)
	handler = loggingMiddleware(logger, opts.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the root handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := httputil.RequestID(r)
			w.Header().Set(httputil.RequestIDHeader, id)
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"bytes", sr.bytes,
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
