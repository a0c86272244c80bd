// Package ephemeristest provides a scriptable ephemeris.Engine for tests.
package ephemeristest

import (
	"errors"
	"math"
	"sync"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/transform"
)

// DeltaTDays is the constant delta-T the fake engine reports, in days.
const DeltaTDays = 69.2 / 86400

// Engine returns deterministic positions derived from the body id. Bodies
// listed in Fail return a negative status with the mapped message; bodies
// listed in Status return that status instead of the default.
type Engine struct {
	Fail   map[ephemeris.BodyID]string
	Status map[ephemeris.BodyID]ephemeris.Flags
	Names  map[ephemeris.BodyID]string
	Path   string

	mu    sync.Mutex
	calls int
}

var _ ephemeris.Engine = (*Engine)(nil)

// Calls returns the number of Calc and NodesApsides calls made so far.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *Engine) count() {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
}

func (e *Engine) JulianDay(dt ephemeris.DateTime) float64 {
	return transform.JulianDay(dt.Year, dt.Month, dt.Day, transform.DecimalHour(dt.Hour, dt.Minute, dt.Second))
}

func (e *Engine) DeltaT(float64, ephemeris.Flags) float64 { return DeltaTDays }

func (e *Engine) status(body ephemeris.BodyID, flags ephemeris.Flags) (ephemeris.Flags, error) {
	if msg, ok := e.Fail[body]; ok {
		return -1, errors.New(msg)
	}
	if s, ok := e.Status[body]; ok {
		return s, nil
	}
	return flags, nil
}

func (e *Engine) Calc(jdUT float64, body ephemeris.BodyID, flags ephemeris.Flags) (ephemeris.Vector, ephemeris.Flags, error) {
	e.count()
	status, err := e.status(body, flags)
	if err != nil {
		return ephemeris.Vector{}, status, err
	}
	b := float64(body % 1000)
	return ephemeris.Vector{
		math.Mod(b*37.25+jdUT-2451545, 360),
		b / 10,
		1 + b/100,
		0.5,
		0.01,
		0.001,
	}, status, nil
}

func (e *Engine) NodesApsides(jdET float64, body ephemeris.BodyID, flags ephemeris.Flags, method ephemeris.NodeMethod) (ephemeris.NodeSet, ephemeris.Flags, error) {
	e.count()
	status, err := e.status(body, flags)
	if err != nil {
		return ephemeris.NodeSet{}, status, err
	}
	b := float64(body)
	return ephemeris.NodeSet{
		Ascending:  ephemeris.Vector{b * 10, 0, 1, 0.01, 0, 0},
		Descending: ephemeris.Vector{b*10 + 180, 0, 1, 0.01, 0, 0},
		Perihelion: ephemeris.Vector{b*10 + 90, 1, 0.9, 0.01, 0, 0},
		Aphelion:   ephemeris.Vector{b*10 + 270, -1, 1.1, 0.01, 0, 0},
	}, status, nil
}

// Houses returns equal cusps starting at the longitude. System 'X' is
// unknown and falls back to 'E' with an error.
func (e *Engine) Houses(jdUT float64, flags ephemeris.Flags, lat, lon float64, system byte) (ephemeris.HouseResult, error) {
	h := ephemeris.HouseResult{System: system}
	var err error
	if system == 'X' {
		h.System = 'E'
		err = errors.New("unknown house system")
	}
	for i := 1; i <= 12; i++ {
		h.Cusps[i] = transform.NormalizeDegrees(lon + float64(i-1)*30)
	}
	h.Asc = h.Cusps[1]
	h.MC = h.Cusps[10]
	return h, err
}

func (e *Engine) BodyName(body ephemeris.BodyID) string {
	if n, ok := e.Names[body]; ok {
		return n
	}
	if body.IsAsteroid() {
		return "?"
	}
	return "Body" + string(rune('A'+int(body)%26))
}

func (e *Engine) Version() string { return "fake-1" }

func (e *Engine) DataPath() string { return e.Path }
