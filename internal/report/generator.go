package report

import (
	"fmt"
	"log/slog"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/format"
	"github.com/astroahava/astro-sweph/internal/record"
	"github.com/astroahava/astro-sweph/internal/textbuf"
	"github.com/astroahava/astro-sweph/internal/transform"
)

// Banner is the fixed answer of the liveness entry point.
const Banner = "Swiss Ephemeris WASM v2.0 ready"

// Ephemeris file facts reported by EphemerisInfo.
const (
	RangeStart  = "0600-01-01"
	RangeEnd    = "2400-01-01"
	FilesLoaded = "VFS"
	Compression = "LZ4"
)

// Truncation notices.
const (
	rangeNotice = "Buffer limit reached, truncating results at asteroid %d"
	listNotice  = "Buffer limit reached, truncating results"
)

// Structural markers shared by several documents.
const (
	docOpen     = "{ "
	docClose    = " }"
	anglesOpen  = `"ascmc": [ `
	housesOpen  = `], "houses": [ `
	housesClose = `] }`
)

// Options tunes a Generator.
type Options struct {
	// Margin is the free space, in bytes, below which a batch stops. It is
	// never smaller than the longest record. Zero means DefaultMargin.
	Margin int

	// NodesIncludeEarth adds Earth to the node and apsides batch.
	NodesIncludeEarth bool
}

// Generator renders documents from an ephemeris oracle. It holds no
// per-request state and is safe for concurrent use.
type Generator struct {
	oracle            *ephemeris.Oracle
	logger            *slog.Logger
	margin            int
	nodesIncludeEarth bool
}

// NewGenerator returns a Generator over oracle.
func NewGenerator(oracle *ephemeris.Oracle, logger *slog.Logger, opts Options) *Generator {
	margin := opts.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Generator{
		oracle:            oracle,
		logger:            logger,
		margin:            max(margin, record.MaxRecordLen),
		nodesIncludeEarth: opts.NodesIncludeEarth,
	}
}

// Moment returns dt with its UT and ET Julian days.
func (g *Generator) Moment(dt ephemeris.DateTime) ephemeris.Moment { return g.oracle.Moment(dt) }

// Margin returns the truncation margin in use.
func (g *Generator) Margin() int { return g.margin }

// Test returns the liveness banner.
func (g *Generator) Test() string { return Banner }

// bodies is the batch over the major bodies at jdUT.
func (g *Generator) bodies(jdUT float64) batch {
	ids := ephemeris.MajorBodies()
	return batch{
		key: "planets",
		n:   len(ids),
		item: func(w *textbuf.Writer, i int, sep string) (bool, bool) {
			r, fit := record.Emit(w,
				func() ephemeris.BodyResult { return g.oracle.Body(jdUT, ids[i]) },
				func(w *textbuf.Writer, r ephemeris.BodyResult) bool { return record.Body(w, r, sep) })
			return r.OK(), fit
		},
		notice: func(int) string { return listNotice },
	}
}

// asteroids is the batch over the given asteroid numbers at jdUT.
func (g *Generator) asteroids(jdUT float64, numbers []int, notice func(n int) string) batch {
	return batch{
		key: "asteroids",
		n:   len(numbers),
		item: func(w *textbuf.Writer, i int, sep string) (bool, bool) {
			r, fit := record.Emit(w,
				func() ephemeris.BodyResult { return g.oracle.Body(jdUT, ephemeris.Asteroid(numbers[i])) },
				func(w *textbuf.Writer, r ephemeris.BodyResult) bool { return record.Body(w, r, sep) })
			return r.OK(), fit
		},
		notice: func(i int) string { return notice(numbers[i]) },
	}
}

// angles writes the ascmc and houses arrays of a house result.
func (g *Generator) angles(d *Document, h ephemeris.HouseResult) {
	d.mark(anglesOpen)
	angles := [2]struct {
		label string
		lon   float64
	}{{"Asc", h.Asc}, {"MC", h.MC}}
	d.list(len(angles), func(w *textbuf.Writer, i int, sep string) bool {
		return record.Angle(w, angles[i].label, angles[i].lon, sep)
	})

	d.mark(housesOpen)
	d.list(12, func(w *textbuf.Writer, i int, sep string) bool {
		return record.Cusp(w, i+1, h.Cusps[i+1], sep)
	})
	d.mark(housesClose)
}

const anglesTail = len(anglesOpen) + len(housesOpen) + len(housesClose)

// Chart renders the full chart: time, major bodies, angles and house cusps.
func (g *Generator) Chart(dt ephemeris.DateTime, pos transform.GeoPosition, system byte, capacity int) *Document {
	m := g.oracle.Moment(dt)
	h := g.oracle.Houses(m.UT, pos.Latitude, pos.Longitude, system)
	b := g.bodies(m.UT)

	header := docOpen + render(func(w *textbuf.Writer) bool { return record.InitDate(w, m, record.UT) })
	tail := len(batchOpen(b)) + batchTail(b) + len(record.Next) + anglesTail
	d := newDocument("chart", capacity, header, tail)

	runBatch(d, b, g.margin, g.logger)
	d.mark(record.Next)
	g.angles(d, h)
	return d.close()
}

// Planets renders the positions of the major bodies.
func (g *Generator) Planets(dt ephemeris.DateTime) *Document {
	m := g.oracle.Moment(dt)
	b := g.bodies(m.UT)

	header := docOpen + render(func(w *textbuf.Writer) bool { return record.InitDate(w, m, record.UT) })
	d := newDocument("planets", PlanetsCapacity, header, len(batchOpen(b))+batchTail(b)+len(docClose))

	runBatch(d, b, g.margin, g.logger)
	d.mark(docClose)
	return d.close()
}

// Houses renders the angles and house cusps for an observer.
func (g *Generator) Houses(dt ephemeris.DateTime, pos transform.GeoPosition, system byte) *Document {
	m := g.oracle.Moment(dt)
	h := g.oracle.Houses(m.UT, pos.Latitude, pos.Longitude, system)

	header := docOpen + render(func(w *textbuf.Writer) bool { return record.InitDate(w, m, record.UT) })
	d := newDocument("houses", HousesCapacity, header, anglesTail)

	g.angles(d, h)
	return d.close()
}

// PlanetaryNodes renders nodes and apsides of Sun through Pluto at the ET
// Julian day of dt.
func (g *Generator) PlanetaryNodes(dt ephemeris.DateTime, method ephemeris.NodeMethod, capacity int) *Document {
	m := g.oracle.Moment(dt)
	ids := ephemeris.NodeBodies(g.nodesIncludeEarth)
	b := batch{
		key: "nodes",
		n:   len(ids),
		item: func(w *textbuf.Writer, i int, sep string) (bool, bool) {
			r, fit := record.Emit(w,
				func() ephemeris.NodeApsidesResult { return g.oracle.Nodes(m.ET, ids[i], method) },
				func(w *textbuf.Writer, r ephemeris.NodeApsidesResult) bool { return record.NodeGroup(w, r, sep) })
			return r.OK(), fit
		},
		notice: func(int) string { return listNotice },
	}

	header := docOpen + render(func(w *textbuf.Writer) bool { return record.InitDate(w, m, record.ET) }) +
		fmt.Sprintf(`"method": %d, `, int(method))
	d := newDocument("nodes", capacity, header, len(batchOpen(b))+batchTail(b)+len(docClose))

	runBatch(d, b, g.margin, g.logger)
	d.mark(docClose)
	return d.close()
}

// SinglePlanetNodes renders nodes and apsides of any body at an ET Julian
// day. The capacity is raised to hold the longest record.
func (g *Generator) SinglePlanetNodes(id ephemeris.BodyID, jdET float64, method ephemeris.NodeMethod, capacity int) *Document {
	d := newDocument("node", max(capacity, record.MaxRecordLen+1), "", 0)
	record.Emit(d.w,
		func() ephemeris.NodeApsidesResult { return g.oracle.Nodes(jdET, id, method) },
		func(w *textbuf.Writer, r ephemeris.NodeApsidesResult) bool { return record.NodeDetail(w, r, jdET, method) })
	return d.close()
}

// Asteroids renders asteroids start through end. The range is ordered and
// clamped first; total_requested counts the clamped range.
func (g *Generator) Asteroids(dt ephemeris.DateTime, start, end, capacity int) *Document {
	start, end = ClampRange(start, end)
	numbers := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		numbers = append(numbers, n)
	}

	m := g.oracle.Moment(dt)
	b := g.asteroids(m.UT, numbers, func(n int) string { return fmt.Sprintf(rangeNotice, n) })

	header := docOpen + render(
		func(w *textbuf.Writer) bool { return record.InitDate(w, m, record.UT) },
		func(w *textbuf.Writer) bool { return record.Range(w, start, end) },
	)
	d := newDocument("asteroids", capacity, header, len(batchOpen(b))+batchTail(b)+len(docClose))

	runBatch(d, b, g.margin, g.logger)
	d.mark(docClose)
	return d.close()
}

// SpecificAsteroids renders the asteroids named in a comma separated list.
// Invalid tokens are dropped without being counted.
func (g *Generator) SpecificAsteroids(dt ephemeris.DateTime, list string, capacity int) *Document {
	numbers := ParseList(list)
	m := g.oracle.Moment(dt)
	b := g.asteroids(m.UT, numbers, func(int) string { return listNotice })

	header := docOpen + render(
		func(w *textbuf.Writer) bool { return record.InitDate(w, m, record.UT) },
		func(w *textbuf.Writer) bool { return record.RequestedList(w, list) },
	)
	d := newDocument("asteroid_list", capacity, header, len(batchOpen(b))+batchTail(b)+len(docClose))

	runBatch(d, b, g.margin, g.logger)
	d.mark(docClose)
	return d.close()
}

// Planet renders one body with the UT Julian day it was computed for.
func (g *Generator) Planet(id ephemeris.BodyID, dt ephemeris.DateTime) *Document {
	m := g.oracle.Moment(dt)
	d := newDocument("planet", max(SingleCapacity, record.MaxRecordLen+1), "", 0)
	record.Emit(d.w,
		func() ephemeris.BodyResult { return g.oracle.Body(m.UT, id) },
		func(w *textbuf.Writer, r ephemeris.BodyResult) bool { return record.BodyDetail(w, r, m.UT) })
	return d.close()
}

// JulianDay renders the UT Julian day of dt.
func (g *Generator) JulianDay(dt ephemeris.DateTime) *Document {
	m := g.oracle.Moment(dt)
	text := fmt.Sprintf(`{ "year": %d, "month": %d, "day": %d, "hour": %d, "minute": %d, "second": %d, "julian_day": %.6f }`,
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, m.UT)
	return newDocument("julian_day", JulianDayCapacity, text, 0).close()
}

// DegreesToDMS renders value in degree/minute/second notation. The document
// is plain text, not JSON.
func (g *Generator) DegreesToDMS(value float64, flags format.Flags) *Document {
	return newDocument("dms", DMSCapacity, format.Degrees(value, flags), 0).close()
}

// EphemerisInfo describes the ephemeris the oracle calculates with.
func (g *Generator) EphemerisInfo(capacity int) *Document {
	e := g.oracle.Engine()
	text := fmt.Sprintf(`{ "ephemeris_path": "%s", "engine": "%s", "date_range": { "start": "%s", "end": "%s" }, "files_loaded": "%s", "compression": "%s" }`,
		format.Escape(e.DataPath(), format.MessageCapacity),
		format.Escape(e.Version(), format.NameCapacity),
		RangeStart, RangeEnd, FilesLoaded, Compression)
	return newDocument("ephemeris", max(capacity, EphemerisCapacity), text, 0).close()
}
