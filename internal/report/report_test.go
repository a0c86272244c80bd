package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/ephemeris/ephemeristest"
	"github.com/astroahava/astro-sweph/internal/format"
	"github.com/astroahava/astro-sweph/internal/record"
	"github.com/astroahava/astro-sweph/internal/transform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestGenerator(engine *ephemeristest.Engine, opts Options) *Generator {
	logger := testLogger()
	return NewGenerator(ephemeris.NewOracle(engine, logger), logger, opts)
}

var (
	christmas = ephemeris.DateTime{Year: 2023, Month: 12, Day: 25, Hour: 12}
	greenwich = transform.GeoPosition{Longitude: -0.1, Latitude: 51.5}
)

// batchDoc is the decoded shape of the batch documents.
type batchDoc struct {
	Planets   []map[string]any `json:"planets"`
	Nodes     []map[string]any `json:"nodes"`
	Asteroids []map[string]any `json:"asteroids"`
	Ascmc     []map[string]any `json:"ascmc"`
	Houses    []map[string]any `json:"houses"`
	Summary   Summary          `json:"summary"`
	Method    int              `json:"method"`
	Requested string           `json:"requested_list"`
	Range     struct {
		Start int `json:"start"`
		End   int `json:"end"`
	} `json:"asteroid_range"`
}

func decodeDoc(t *testing.T, d *Document) batchDoc {
	t.Helper()
	var doc batchDoc
	if err := json.Unmarshal(d.Bytes(), &doc); err != nil {
		t.Fatalf("%s document is not valid JSON: %v\n%s", d.Kind(), err, d.String())
	}
	return doc
}

func warnings(items []map[string]any) int {
	n := 0
	for _, it := range items {
		if _, ok := it["warning"]; ok {
			n++
		}
	}
	return n
}

func indexes(items []map[string]any) []int {
	var out []int
	for _, it := range items {
		if v, ok := it["index"].(float64); ok {
			out = append(out, int(v))
		}
	}
	return out
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name string
		list string
		want []int
	}{
		{"mixed tokens", "1,2,abc,-5,3", []int{1, 2, 3}},
		{"spaces", " 4 , 5 ", []int{4, 5}},
		{"bounds", "0,1,1000,1001", []int{1, 1000}},
		{"empty tokens", "1,,2,", []int{1, 2}},
		{"trailing garbage", "3x,7", []int{7}},
		{"duplicates kept", "9,9", []int{9, 9}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseList(tt.list)); diff != "" {
				t.Errorf("ParseList(%q) mismatch (-want +got):\n%s", tt.list, diff)
			}
		})
	}
}

func TestParseListCap(t *testing.T) {
	tokens := make([]string, 1500)
	for i := range tokens {
		tokens[i] = fmt.Sprint(i%1000 + 1)
	}
	got := ParseList(strings.Join(tokens, ","))
	if len(got) != MaxListedAsteroids {
		t.Errorf("kept %d numbers, want %d", len(got), MaxListedAsteroids)
	}
}

func TestClampRange(t *testing.T) {
	tests := []struct {
		start, end         int
		wantStart, wantEnd int
	}{
		{1, 100, 1, 100},
		{100, 1, 1, 100},
		{-5, 10, 1, 10},
		{990, 5000, 990, 1000},
		{2000, 1500, 1000, 1000},
		{0, 0, 1, 1},
	}
	for _, tt := range tests {
		s, e := ClampRange(tt.start, tt.end)
		if s != tt.wantStart || e != tt.wantEnd {
			t.Errorf("ClampRange(%d, %d) = %d, %d; want %d, %d", tt.start, tt.end, s, e, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestMarginNeverBelowLongestRecord(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{Margin: 10})
	if g.Margin() != record.MaxRecordLen {
		t.Errorf("Margin() = %d, want %d", g.Margin(), record.MaxRecordLen)
	}
	g = newTestGenerator(&ephemeristest.Engine{}, Options{})
	if g.Margin() != max(DefaultMargin, record.MaxRecordLen) {
		t.Errorf("default Margin() = %d", g.Margin())
	}
}

func TestAsteroidRangeTruncates(t *testing.T) {
	engine := &ephemeristest.Engine{}
	g := newTestGenerator(engine, Options{})

	d := g.Asteroids(christmas, 1, 100, 5000)
	defer d.Release()
	doc := decodeDoc(t, d)

	if doc.Summary.TotalRequested != 100 {
		t.Errorf("total_requested = %d, want 100", doc.Summary.TotalRequested)
	}
	if got := doc.Summary.Calculated + doc.Summary.Errors; got >= 100 {
		t.Errorf("calculated+errors = %d, want < 100", got)
	}
	if warnings(doc.Asteroids) != 1 {
		t.Errorf("want exactly one truncation notice, got %d", warnings(doc.Asteroids))
	}
	if !d.Truncated() || d.State() != Closed {
		t.Errorf("Truncated() = %v, State() = %v", d.Truncated(), d.State())
	}
	if diff := cmp.Diff(doc.Summary, d.Summary()); diff != "" {
		t.Errorf("Summary() disagrees with document (-doc +Summary):\n%s", diff)
	}
	// One engine call per written record plus at most the one that did not fit.
	if written := len(indexes(doc.Asteroids)); engine.Calls() > written+1 {
		t.Errorf("engine called %d times for %d records", engine.Calls(), written)
	}

	last := doc.Asteroids[len(doc.Asteroids)-1]["warning"].(string)
	if !strings.HasPrefix(last, "Buffer limit reached, truncating results at asteroid ") {
		t.Errorf("warning = %q", last)
	}
}

func TestAsteroidRangeComplete(t *testing.T) {
	engine := &ephemeristest.Engine{
		Fail:  map[ephemeris.BodyID]string{ephemeris.Asteroid(3): "ephemeris file ast0/se00003.se1 not found"},
		Names: map[ephemeris.BodyID]string{ephemeris.Asteroid(1): "Ceres"},
	}
	g := newTestGenerator(engine, Options{})

	d := g.Asteroids(christmas, 5, 1, AsteroidsCapacity)
	defer d.Release()
	doc := decodeDoc(t, d)

	want := Summary{Calculated: 4, Errors: 1, TotalRequested: 5}
	if diff := cmp.Diff(want, doc.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if doc.Range.Start != 1 || doc.Range.End != 5 {
		t.Errorf("asteroid_range = %+v", doc.Range)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5}, indexes(doc.Asteroids)); diff != "" {
		t.Errorf("indexes mismatch (-want +got):\n%s", diff)
	}
	if doc.Asteroids[0]["name"] != "Ceres" || doc.Asteroids[1]["name"] != "Asteroid_2" {
		t.Errorf("names = %v, %v", doc.Asteroids[0]["name"], doc.Asteroids[1]["name"])
	}
	if doc.Asteroids[2]["error"] != true || doc.Asteroids[2]["error_msg"] == "" {
		t.Errorf("failed asteroid record = %v", doc.Asteroids[2])
	}
	if d.Truncated() || warnings(doc.Asteroids) != 0 {
		t.Error("complete batch reported truncation")
	}
}

func TestSpecificAsteroids(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})

	d := g.SpecificAsteroids(christmas, "1,2,abc,-5,3", AsteroidsCapacity)
	defer d.Release()
	doc := decodeDoc(t, d)

	if diff := cmp.Diff([]int{1, 2, 3}, indexes(doc.Asteroids)); diff != "" {
		t.Errorf("indexes mismatch (-want +got):\n%s", diff)
	}
	if doc.Summary.TotalRequested != 3 || doc.Summary.Calculated != 3 {
		t.Errorf("summary = %+v", doc.Summary)
	}
	if doc.Requested != "1,2,abc,-5,3" {
		t.Errorf("requested_list = %q", doc.Requested)
	}
}

func TestSpecificAsteroidsEmpty(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})

	d := g.SpecificAsteroids(christmas, `abc,"x"`, 0)
	defer d.Release()
	doc := decodeDoc(t, d)

	if len(doc.Asteroids) != 0 || doc.Summary != (Summary{}) {
		t.Errorf("empty list produced %v %+v", doc.Asteroids, doc.Summary)
	}
	if doc.Requested != `abc,"x"` {
		t.Errorf("requested_list = %q", doc.Requested)
	}
}

func TestPlanetsReconcile(t *testing.T) {
	engine := &ephemeristest.Engine{
		Fail:   map[ephemeris.BodyID]string{ephemeris.Chiron: "no orbit"},
		Status: map[ephemeris.BodyID]ephemeris.Flags{ephemeris.Pholus: ephemeris.FlagMoshier | ephemeris.FlagSpeed},
	}
	g := newTestGenerator(engine, Options{})

	d := g.Planets(christmas)
	defer d.Release()
	doc := decodeDoc(t, d)

	total := len(ephemeris.MajorBodies())
	want := Summary{Calculated: total - 2, Errors: 2, TotalRequested: total}
	if diff := cmp.Diff(want, doc.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	for _, idx := range indexes(doc.Planets) {
		if idx == int(ephemeris.Earth) {
			t.Error("Earth listed among planets")
		}
	}
	if len(doc.Planets) != total {
		t.Errorf("%d planet records, want %d", len(doc.Planets), total)
	}
}

func TestChart(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})

	d := g.Chart(christmas, greenwich, 'P', ChartCapacity)
	defer d.Release()
	doc := decodeDoc(t, d)

	if len(doc.Planets) != len(ephemeris.MajorBodies()) || len(doc.Ascmc) != 2 || len(doc.Houses) != 12 {
		t.Fatalf("chart sizes: planets=%d ascmc=%d houses=%d", len(doc.Planets), len(doc.Ascmc), len(doc.Houses))
	}
	if doc.Ascmc[0]["name"] != "Asc" || doc.Ascmc[1]["name"] != "MC" {
		t.Errorf("ascmc = %v", doc.Ascmc)
	}
	if doc.Houses[11]["name"] != "12" {
		t.Errorf("last cusp = %v", doc.Houses[11])
	}
	if d.Truncated() {
		t.Error("chart truncated at full capacity")
	}
}

func TestHousesFallback(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})

	d := g.Houses(christmas, greenwich, 'X')
	defer d.Release()
	doc := decodeDoc(t, d)

	if len(doc.Houses) != 12 {
		t.Errorf("%d cusps, want 12", len(doc.Houses))
	}
	want := transform.NormalizeDegrees(greenwich.Longitude)
	if got := doc.Houses[0]["long"].(float64); got < want-1e-6 || got > want+1e-6 {
		t.Errorf("first cusp = %v, want %v", got, want)
	}
}

func TestPlanetaryNodes(t *testing.T) {
	tests := []struct {
		name         string
		includeEarth bool
		want         []int
	}{
		{"without observer", false, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"with observer", true, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(&ephemeristest.Engine{}, Options{NodesIncludeEarth: tt.includeEarth})

			d := g.PlanetaryNodes(christmas, ephemeris.NodeOscu, NodesCapacity)
			defer d.Release()
			doc := decodeDoc(t, d)

			if diff := cmp.Diff(tt.want, indexes(doc.Nodes)); diff != "" {
				t.Errorf("indexes mismatch (-want +got):\n%s", diff)
			}
			if doc.Method != int(ephemeris.NodeOscu) {
				t.Errorf("method = %d", doc.Method)
			}
			if doc.Summary.Calculated != len(tt.want) {
				t.Errorf("summary = %+v", doc.Summary)
			}
		})
	}
}

func TestSinglePlanetNodes(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{
		Fail: map[ephemeris.BodyID]string{ephemeris.Earth: `no "nodes" here`},
	}, Options{})

	d := g.SinglePlanetNodes(ephemeris.Earth, 2451545, ephemeris.NodeMean, 10)
	defer d.Release()

	var got map[string]any
	if err := json.Unmarshal(d.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, d.String())
	}
	if got["error"] != true || got["error_msg"] != `no "nodes" here` || got["index"] != float64(14) {
		t.Errorf("single node document = %v", got)
	}
}

func TestPlanet(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})

	d := g.Planet(ephemeris.Mars, ephemeris.DateTime{Year: 2000, Month: 1, Day: 1, Hour: 12})
	defer d.Release()

	var got map[string]any
	if err := json.Unmarshal(d.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, d.String())
	}
	if got["jd_ut"] != 2451545.0 || got["index"] != float64(4) || got["error"] != false {
		t.Errorf("planet document = %v", got)
	}
}

func TestJulianDay(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})

	d := g.JulianDay(ephemeris.DateTime{Year: 2000, Month: 1, Day: 1, Hour: 12})
	defer d.Release()

	want := `{ "year": 2000, "month": 1, "day": 1, "hour": 12, "minute": 0, "second": 0, "julian_day": 2451545.000000 }`
	if d.String() != want {
		t.Errorf("JulianDay =\n%s\nwant\n%s", d.String(), want)
	}
}

func TestDegreesToDMS(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})

	d := g.DegreesToDMS(185.759, format.Zodiac|format.RoundSec)
	defer d.Release()
	if !strings.HasPrefix(d.String(), " 5 li 45'32") {
		t.Errorf("DegreesToDMS = %q", d.String())
	}
}

func TestEphemerisInfo(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{Path: `C:\eph`}, Options{})

	d := g.EphemerisInfo(0)
	defer d.Release()

	var got struct {
		Path      string `json:"ephemeris_path"`
		Engine    string `json:"engine"`
		DateRange struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"date_range"`
	}
	if err := json.Unmarshal(d.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, d.String())
	}
	if got.Path != `C:\eph` || got.Engine != "fake-1" || got.DateRange.Start != RangeStart || got.DateRange.End != RangeEnd {
		t.Errorf("ephemeris info = %+v", got)
	}
}

func TestTest(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})
	if g.Test() != Banner {
		t.Errorf("Test() = %q", g.Test())
	}
}

// Every document must parse at every capacity, however small.
func TestWellFormedAtAnyCapacity(t *testing.T) {
	engine := &ephemeristest.Engine{
		Fail: map[ephemeris.BodyID]string{ephemeris.Moon: strings.Repeat(`"\`, 300)},
	}
	g := newTestGenerator(engine, Options{})

	docs := map[string]func(capacity int) *Document{
		"chart":     func(c int) *Document { return g.Chart(christmas, greenwich, 'P', c) },
		"nodes":     func(c int) *Document { return g.PlanetaryNodes(christmas, ephemeris.NodeMean, c) },
		"node":      func(c int) *Document { return g.SinglePlanetNodes(ephemeris.Moon, 2451545, ephemeris.NodeMean, c) },
		"asteroids": func(c int) *Document { return g.Asteroids(christmas, 1, 1000, c) },
		"list":      func(c int) *Document { return g.SpecificAsteroids(christmas, "1,2,3,4,5,6,7,8,9,10", c) },
		"info":      func(c int) *Document { return g.EphemerisInfo(c) },
	}

	for name, build := range docs {
		for _, capacity := range []int{-1, 0, 1, 100, 256, 300, 500, 1000, 1500, 2500, 5000, 20000} {
			t.Run(fmt.Sprintf("%s/%d", name, capacity), func(t *testing.T) {
				d := build(capacity)
				defer d.Release()
				if !json.Valid(d.Bytes()) {
					t.Fatalf("invalid JSON at capacity %d:\n%s", capacity, d.String())
				}
				if d.Len() >= d.Cap() {
					t.Errorf("wrote %d bytes into capacity %d", d.Len(), d.Cap())
				}
				if d.State() != Closed {
					t.Errorf("State() = %v", d.State())
				}
				if s := d.Summary(); strings.Contains(d.String(), "Buffer limit reached") && s.Calculated+s.Errors >= s.TotalRequested {
					t.Errorf("truncated batch counts every item: %+v", s)
				}
			})
		}
	}
}

func TestFixedDocumentsParse(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{}, Options{})
	for _, d := range []*Document{
		g.Planets(christmas),
		g.Houses(christmas, greenwich, 'O'),
		g.Planet(ephemeris.Asteroid(433), christmas),
		g.JulianDay(christmas),
	} {
		if !json.Valid(d.Bytes()) {
			t.Errorf("%s document is not valid JSON:\n%s", d.Kind(), d.String())
		}
		d.Release()
	}
}

// TestFootprintBoundsAllocation checks that no entry point allocates more
// than the footprint of the capacity it was asked for.
func TestFootprintBoundsAllocation(t *testing.T) {
	g := newTestGenerator(&ephemeristest.Engine{Path: strings.Repeat(`\`, 2000)}, Options{})
	far := ephemeris.DateTime{Year: -99999, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 59}
	longList := strings.Repeat(`"`, 3000)

	for _, capacity := range []int{1, 100, MinCapacity, 600, 1000, 5000} {
		docs := map[string]*Document{
			"chart":         g.Chart(far, greenwich, 'P', capacity),
			"nodes":         g.PlanetaryNodes(far, ephemeris.NodeFocal|ephemeris.NodeOscuBar, capacity),
			"single node":   g.SinglePlanetNodes(ephemeris.Asteroid(99999), -1e9, ephemeris.NodeFocal, capacity),
			"asteroids":     g.Asteroids(far, 1000, 1, capacity),
			"asteroid list": g.SpecificAsteroids(far, longList, capacity),
			"ephemeris":     g.EphemerisInfo(capacity),
		}
		for name, d := range docs {
			if d.Cap() > Footprint(capacity) {
				t.Errorf("%s at capacity %d allocated %d, footprint %d", name, capacity, d.Cap(), Footprint(capacity))
			}
			d.Release()
		}
	}

	fixed := map[string]struct {
		d        *Document
		capacity int
	}{
		"planets": {g.Planets(far), PlanetsCapacity},
		"houses":  {g.Houses(far, greenwich, 'P'), HousesCapacity},
		"planet":  {g.Planet(ephemeris.Asteroid(99999), far), SingleCapacity},
		"jd":      {g.JulianDay(far), JulianDayCapacity},
		"dms":     {g.DegreesToDMS(-359.999, 0), DMSCapacity},
	}
	for name, f := range fixed {
		if f.d.Cap() > Footprint(f.capacity) {
			t.Errorf("%s allocated %d, footprint %d", name, f.d.Cap(), Footprint(f.capacity))
		}
		f.d.Release()
	}
}
