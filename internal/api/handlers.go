package api

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/semaphore"

	"github.com/astroahava/astro-sweph/internal/format"
	"github.com/astroahava/astro-sweph/internal/httputil"
	"github.com/astroahava/astro-sweph/internal/metrics"
	"github.com/astroahava/astro-sweph/internal/report"
)

// budget bounds the bytes of output buffers held by in-flight requests.
type budget struct {
	sem *semaphore.Weighted
}

func newBudget(n int64) *budget {
	return &budget{sem: semaphore.NewWeighted(n)}
}

// acquire takes n bytes without waiting.
func (b *budget) acquire(n int) bool {
	if !b.sem.TryAcquire(int64(n)) {
		return false
	}
	metrics.AddInflightBytes(int64(n))
	return true
}

func (b *budget) release(n int) {
	b.sem.Release(int64(n))
	metrics.AddInflightBytes(-int64(n))
}

type handlers struct {
	logger      *slog.Logger
	gen         *report.Generator
	budget      *budget
	maxCapacity int
	houseSystem byte
}

// fail answers 400 for a rejected request parameter.
func (h *handlers) fail(w http.ResponseWriter, err error) {
	h.logger.Debug("bad request", "component", "api", "error", err)
	httputil.WriteError(w, http.StatusBadRequest, err.Error())
}

// capacity reads the optional capacity parameter.
func (h *handlers) capacity(r *http.Request, def int) (int, error) {
	return intParam(r.URL.Query(), "capacity", def, 1, h.maxCapacity, false)
}

// serve holds the footprint of capacity in the budget while build renders a
// document, then writes it.
func (h *handlers) serve(w http.ResponseWriter, r *http.Request, capacity int, contentType string, build func() *report.Document) {
	capacity = report.Footprint(capacity)
	if !h.budget.acquire(capacity) {
		h.logger.Warn("output budget exhausted", "component", "api", "path", r.URL.Path, "capacity", capacity)
		w.Header().Set("Retry-After", "1")
		httputil.WriteError(w, http.StatusServiceUnavailable, "server busy, retry later")
		return
	}
	defer h.budget.release(capacity)

	d := build()
	defer d.Release()

	w.Header().Set("Content-Type", contentType)
	if d.Truncated() {
		w.Header().Set("X-Truncated", "true")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(d.Bytes()); err != nil {
		h.logger.Debug("write response failed", "component", "api", "error", err)
	}
}

const jsonType = "application/json"

func (h *handlers) test(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(h.gen.Test()))
}

func (h *handlers) chart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dt, err := dateParams(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	pos, err := geoParams(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	hsys, err := houseParam(q, h.houseSystem)
	if err != nil {
		h.fail(w, err)
		return
	}
	capacity, err := h.capacity(r, report.ChartCapacity)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, capacity, jsonType, func() *report.Document {
		return h.gen.Chart(dt, pos, hsys, capacity)
	})
}

func (h *handlers) planets(w http.ResponseWriter, r *http.Request) {
	dt, err := dateParams(r.URL.Query())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, report.PlanetsCapacity, jsonType, func() *report.Document {
		return h.gen.Planets(dt)
	})
}

func (h *handlers) planet(w http.ResponseWriter, r *http.Request) {
	id, err := bodyParam(r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	dt, err := dateParams(r.URL.Query())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, report.SingleCapacity, jsonType, func() *report.Document {
		return h.gen.Planet(id, dt)
	})
}

func (h *handlers) houses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dt, err := dateParams(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	pos, err := geoParams(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	hsys, err := houseParam(q, h.houseSystem)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, report.HousesCapacity, jsonType, func() *report.Document {
		return h.gen.Houses(dt, pos, hsys)
	})
}

func (h *handlers) nodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dt, err := dateParams(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	method, err := methodParam(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	capacity, err := h.capacity(r, report.NodesCapacity)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, capacity, jsonType, func() *report.Document {
		return h.gen.PlanetaryNodes(dt, method, capacity)
	})
}

// node answers for one body at jd_et, or at the ET of the date parameters
// when jd_et is absent.
func (h *handlers) node(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := bodyParam(r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	method, err := methodParam(q)
	if err != nil {
		h.fail(w, err)
		return
	}

	var jdET float64
	if q.Has("jd_et") {
		jdET, err = floatParam(q, "jd_et")
	} else {
		dt, derr := dateParams(q)
		jdET, err = h.gen.Moment(dt).ET, derr
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	capacity, err := h.capacity(r, report.SingleCapacity)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, capacity, jsonType, func() *report.Document {
		return h.gen.SinglePlanetNodes(id, jdET, method, capacity)
	})
}

// asteroids serves a list when list is given and a start..end range
// otherwise.
func (h *handlers) asteroids(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dt, err := dateParams(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	capacity, err := h.capacity(r, report.AsteroidsCapacity)
	if err != nil {
		h.fail(w, err)
		return
	}

	if q.Has("list") {
		list := q.Get("list")
		h.serve(w, r, capacity, jsonType, func() *report.Document {
			return h.gen.SpecificAsteroids(dt, list, capacity)
		})
		return
	}

	const bound = 1 << 30
	start, err := intParam(q, "start", 0, -bound, bound, true)
	if err != nil {
		h.fail(w, err)
		return
	}
	end, err := intParam(q, "end", 0, -bound, bound, true)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, capacity, jsonType, func() *report.Document {
		return h.gen.Asteroids(dt, start, end, capacity)
	})
}

func (h *handlers) julianDay(w http.ResponseWriter, r *http.Request) {
	dt, err := dateParams(r.URL.Query())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, report.JulianDayCapacity, jsonType, func() *report.Document {
		return h.gen.JulianDay(dt)
	})
}

func (h *handlers) dms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value, err := floatParam(q, "value")
	if err != nil {
		h.fail(w, err)
		return
	}
	flags, err := intParam(q, "flags", int(format.Zodiac), 0, 1<<16, false)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, report.DMSCapacity, "text/plain; charset=utf-8", func() *report.Document {
		return h.gen.DegreesToDMS(value, format.Flags(flags))
	})
}

func (h *handlers) ephemeris(w http.ResponseWriter, r *http.Request) {
	capacity, err := h.capacity(r, report.EphemerisCapacity)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, r, capacity, jsonType, func() *report.Document {
		return h.gen.EphemerisInfo(capacity)
	})
}
