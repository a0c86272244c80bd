package ephemeris

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/astroahava/astro-sweph/internal/metrics"
)

// Engine is the ephemeris computation engine. Implementations are pure
// computation and safe for concurrent use.
//
// Calc and NodesApsides return the engine status flags; a negative status
// means failure and err then carries the engine's message. A non-nil err
// alongside an acceptable status is a warning and is ignored.
type Engine interface {
	JulianDay(dt DateTime) float64
	DeltaT(jdUT float64, flags Flags) float64
	Calc(jdUT float64, body BodyID, flags Flags) (Vector, Flags, error)
	NodesApsides(jdET float64, body BodyID, flags Flags, method NodeMethod) (NodeSet, Flags, error)
	Houses(jdUT float64, flags Flags, lat, lon float64, system byte) (HouseResult, error)
	BodyName(body BodyID) string
	Version() string
	DataPath() string
}

// Oracle wraps an Engine with the calculation flags of a request and turns
// raw engine returns into classified results.
type Oracle struct {
	engine Engine
	flags  Flags
	logger *slog.Logger
}

// NewOracle returns an Oracle calculating with DefaultFlags.
func NewOracle(engine Engine, logger *slog.Logger) *Oracle {
	return &Oracle{
		engine: engine,
		flags:  DefaultFlags,
		logger: logger,
	}
}

// Flags returns the calculation flags in use.
func (o *Oracle) Flags() Flags { return o.flags }

// Engine returns the wrapped engine.
func (o *Oracle) Engine() Engine { return o.engine }

// Moment derives the UT and ET Julian days for dt.
func (o *Oracle) Moment(dt DateTime) Moment {
	ut := o.engine.JulianDay(dt)
	return Moment{
		DateTime: dt,
		UT:       ut,
		ET:       ut + o.engine.DeltaT(ut, o.flags),
	}
}

// Body calculates the position of one body at jdUT. Success requires a
// strictly positive status with the ephemeris bit set; asteroids accept a
// zero status.
func (o *Oracle) Body(jdUT float64, id BodyID) BodyResult {
	start := time.Now()
	v, status, err := o.engine.Calc(jdUT, id, o.flags)
	metrics.ObserveOracleCall("calc", time.Since(start))

	out := classify(v, status, FlagEphemeris, !id.IsAsteroid(), err)
	if !out.OK() {
		o.logger.Debug("body calculation failed", "body", int(id), "status", int(status), "message", out.Message)
	}
	return BodyResult{ID: id, Name: o.Name(id), Outcome: out}
}

// Nodes calculates nodes and apsides of one body at jdET. Any non-negative
// status is a success.
func (o *Oracle) Nodes(jdET float64, id BodyID, method NodeMethod) NodeApsidesResult {
	start := time.Now()
	set, status, err := o.engine.NodesApsides(jdET, id, o.flags, method)
	metrics.ObserveOracleCall("nodes", time.Since(start))

	out := classify(set, status, 0, false, err)
	if !out.OK() {
		o.logger.Debug("nodes calculation failed", "body", int(id), "method", int(method), "message", out.Message)
	}
	return NodeApsidesResult{ID: id, Name: o.Name(id), Outcome: out}
}

// Houses calculates house cusps and angles for an observer. The engine
// substitutes a fallback system when the requested one cannot be computed;
// that condition is logged and the fallback cusps are returned.
func (o *Oracle) Houses(jdUT float64, lat, lon float64, system byte) HouseResult {
	start := time.Now()
	h, err := o.engine.Houses(jdUT, o.flags, lat, lon, system)
	metrics.ObserveOracleCall("houses", time.Since(start))

	if err != nil {
		o.logger.Debug("house calculation fell back", "system", string(system), "used", string(h.System), "error", err)
	}
	return h
}

// Name returns the display name of a body. Unnamed asteroids are called
// "Asteroid_<n>".
func (o *Oracle) Name(id BodyID) string {
	name := o.engine.BodyName(id)
	if name == "" || name == "?" {
		if id.IsAsteroid() {
			return fmt.Sprintf("Asteroid_%d", id.Number())
		}
		return fmt.Sprintf("Body_%d", int(id))
	}
	return name
}
