// Package kepler is a self-contained, low-precision ephemeris engine.
//
// Planets move on mean Keplerian orbits, the Moon follows the largest terms
// of its periodic theory, and a handful of minor planets carry fixed
// osculating elements. Positions are good to a fraction of a degree over the
// supported range, which is enough to exercise every document the service
// produces without native ephemeris files.
package kepler

import (
	"fmt"
	"math"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/transform"
)

// Version identifies the engine in info documents.
const Version = "kepler 1.0 (mean elements)"

// Supported calendar range, inclusive start.
const (
	RangeStart = "0600-01-01"
	RangeEnd   = "2400-01-01"
)

var (
	jdStart = transform.JulianDay(600, 1, 1, 0)
	jdEnd   = transform.JulianDay(2400, 1, 1, 0)
)

// speedStep is the half-interval, in days, of the central difference used
// for speeds.
const speedStep = 0.01

var names = [...]string{
	ephemeris.Sun:                 "Sun",
	ephemeris.Moon:                "Moon",
	ephemeris.Mercury:             "Mercury",
	ephemeris.Venus:               "Venus",
	ephemeris.Mars:                "Mars",
	ephemeris.Jupiter:             "Jupiter",
	ephemeris.Saturn:              "Saturn",
	ephemeris.Uranus:              "Uranus",
	ephemeris.Neptune:             "Neptune",
	ephemeris.Pluto:               "Pluto",
	ephemeris.MeanNode:            "mean Node",
	ephemeris.TrueNode:            "true Node",
	ephemeris.MeanApogee:          "mean Apogee",
	ephemeris.OscuApogee:          "osc. Apogee",
	ephemeris.Earth:               "Earth",
	ephemeris.Chiron:              "Chiron",
	ephemeris.Pholus:              "Pholus",
	ephemeris.Ceres:               "Ceres",
	ephemeris.Pallas:              "Pallas",
	ephemeris.Juno:                "Juno",
	ephemeris.Vesta:               "Vesta",
	ephemeris.InterpolatedApogee:  "intp. Apogee",
	ephemeris.InterpolatedPerigee: "intp. Perigee",
}

// Engine implements ephemeris.Engine. The zero value is usable; the data path
// is only reported, never read.
type Engine struct {
	dataPath string
}

var _ ephemeris.Engine = (*Engine)(nil)

// New returns an Engine that reports dataPath as its ephemeris location.
func New(dataPath string) *Engine {
	return &Engine{dataPath: dataPath}
}

func (e *Engine) Version() string  { return Version }
func (e *Engine) DataPath() string { return e.dataPath }

func (e *Engine) BodyName(body ephemeris.BodyID) string {
	if body >= 0 && int(body) < len(names) {
		return names[body]
	}
	if mp, ok := minorByBody[body]; ok {
		return mp.name
	}
	return "?"
}

// JulianDay converts a Gregorian UT date and time.
func (e *Engine) JulianDay(dt ephemeris.DateTime) float64 {
	return transform.JulianDay(dt.Year, dt.Month, dt.Day, transform.DecimalHour(dt.Hour, dt.Minute, dt.Second))
}

// DeltaT returns TT-UT in days.
func (e *Engine) DeltaT(jdUT float64, _ ephemeris.Flags) float64 {
	return deltaT(jdUT)
}

func checkRange(jd float64) error {
	if jd < jdStart || jd >= jdEnd {
		return fmt.Errorf("jd %f outside ephemeris range %s .. %s", jd, RangeStart, RangeEnd)
	}
	return nil
}

// status reports the flags a successful call returns: the request flags with
// the ephemeris bit unless another engine was asked for.
func status(flags ephemeris.Flags) ephemeris.Flags {
	if flags&(ephemeris.FlagEphemeris|ephemeris.FlagMoshier|ephemeris.FlagJPL) == 0 {
		flags |= ephemeris.FlagEphemeris
	}
	return flags
}

// Calc returns the position of body at jdUT.
func (e *Engine) Calc(jdUT float64, body ephemeris.BodyID, flags ephemeris.Flags) (ephemeris.Vector, ephemeris.Flags, error) {
	if err := checkRange(jdUT); err != nil {
		return ephemeris.Vector{}, -1, err
	}
	jd := jdUT + deltaT(jdUT)

	at := func(jd float64) ([3]float64, error) {
		p, err := e.position(jd, body, flags)
		if err != nil {
			return p, err
		}
		if flags&ephemeris.FlagEquatorial != 0 {
			p[0], p[1] = toEquatorial(p[0], p[1], obliquity(transform.JulianCenturies(jd)))
		}
		return p, nil
	}

	p, err := at(jd)
	if err != nil {
		return ephemeris.Vector{}, -1, err
	}
	v := ephemeris.Vector{p[0], p[1], p[2]}

	if flags&ephemeris.FlagSpeed != 0 {
		before, _ := at(jd - speedStep)
		after, _ := at(jd + speedStep)
		v[3], v[4], v[5] = speed(before, after)
	}
	return v, status(flags), nil
}

// position returns longitude, latitude and distance of body at jdET.
func (e *Engine) position(jd float64, body ephemeris.BodyID, flags ephemeris.Flags) ([3]float64, error) {
	t := transform.JulianCenturies(jd)
	helio := flags&ephemeris.FlagHelio != 0
	earth := planets[ephemeris.Earth].at(t).position()

	switch body {
	case ephemeris.Sun:
		if helio {
			return [3]float64{}, nil
		}
		return spherical(neg(earth)), nil
	case ephemeris.Earth:
		if helio {
			return spherical(earth), nil
		}
		return [3]float64{}, nil
	case ephemeris.Moon:
		lon, lat, dist := moon(t)
		if helio {
			return spherical(add(earth, rect(lon, lat, dist))), nil
		}
		return [3]float64{transform.NormalizeDegrees(lon), lat, dist}, nil
	case ephemeris.MeanNode:
		return [3]float64{transform.NormalizeDegrees(meanNode(t)), 0, nodeDist}, nil
	case ephemeris.TrueNode:
		return [3]float64{transform.NormalizeDegrees(trueNode(t)), 0, nodeDist}, nil
	case ephemeris.MeanApogee:
		return [3]float64{transform.NormalizeDegrees(meanApogee(t)), 0, apogeeDist}, nil
	case ephemeris.OscuApogee:
		return [3]float64{transform.NormalizeDegrees(oscuApogee(t)), 0, apogeeDist}, nil
	case ephemeris.InterpolatedApogee:
		lon := (meanApogee(t) + oscuApogee(t)) / 2
		return [3]float64{transform.NormalizeDegrees(lon), 0, apogeeDist}, nil
	case ephemeris.InterpolatedPerigee:
		lon := (meanApogee(t)+oscuApogee(t))/2 + 180
		return [3]float64{transform.NormalizeDegrees(lon), 0, perigeeDist}, nil
	}

	o, err := e.orbit(body, t)
	if err != nil {
		return [3]float64{}, err
	}
	p := o.position()
	if !helio {
		p = sub(p, earth)
	}
	return spherical(p), nil
}

// orbit returns the elements of a body that moves on a Keplerian orbit.
func (e *Engine) orbit(body ephemeris.BodyID, t float64) (orbit, error) {
	if el, ok := planets[body]; ok {
		return el.at(t), nil
	}
	if mp, ok := minorByBody[body]; ok {
		return mp.at(t), nil
	}
	if body.IsAsteroid() {
		n := body.Number()
		return orbit{}, fmt.Errorf("ephemeris file ast%d/se%05d.se1 not found in path '%s'", n/1000, n, e.dataPath)
	}
	return orbit{}, fmt.Errorf("illegal body number %d", int(body))
}

// NodesApsides returns the ascending and descending nodes, perihelion and
// aphelion of body at jdET. With NodeFocal the aphelion is replaced by the
// second focus of the orbit.
func (e *Engine) NodesApsides(jdET float64, body ephemeris.BodyID, flags ephemeris.Flags, method ephemeris.NodeMethod) (ephemeris.NodeSet, ephemeris.Flags, error) {
	if err := checkRange(jdET); err != nil {
		return ephemeris.NodeSet{}, -1, err
	}

	points, err := e.nodePoints(jdET, body, flags, method)
	if err != nil {
		return ephemeris.NodeSet{}, -1, err
	}

	var vs [4]ephemeris.Vector
	var before, after [4][3]float64
	if flags&ephemeris.FlagSpeed != 0 {
		before, _ = e.nodePoints(jdET-speedStep, body, flags, method)
		after, _ = e.nodePoints(jdET+speedStep, body, flags, method)
	}
	for k := range vs {
		vs[k] = ephemeris.Vector{points[k][0], points[k][1], points[k][2]}
		if flags&ephemeris.FlagSpeed != 0 {
			vs[k][3], vs[k][4], vs[k][5] = speed(before[k], after[k])
		}
	}

	return ephemeris.NodeSet{
		Ascending:  vs[0],
		Descending: vs[1],
		Perihelion: vs[2],
		Aphelion:   vs[3],
	}, status(flags), nil
}

func (e *Engine) nodePoints(jd float64, body ephemeris.BodyID, flags ephemeris.Flags, method ephemeris.NodeMethod) ([4][3]float64, error) {
	t := transform.JulianCenturies(jd)

	if body == ephemeris.Moon {
		node := meanNode(t)
		apogee := meanApogee(t)
		if method&(ephemeris.NodeOscu|ephemeris.NodeOscuBar) != 0 {
			node = trueNode(t)
			apogee = oscuApogee(t)
		}
		return [4][3]float64{
			{transform.NormalizeDegrees(node), 0, nodeDist},
			{transform.NormalizeDegrees(node + 180), 0, nodeDist},
			{transform.NormalizeDegrees(apogee + 180), 0, perigeeDist},
			{transform.NormalizeDegrees(apogee), 0, apogeeDist},
		}, nil
	}

	src := body
	if body == ephemeris.Sun {
		src = ephemeris.Earth
	}
	o, err := e.orbit(src, t)
	if err != nil {
		return [4][3]float64{}, fmt.Errorf("nodes/apsides for body %d: %w", int(body), err)
	}

	w := rad(o.peri - o.node)
	pts := [4][3]float64{
		o.pointAt(-w),
		o.pointAt(math.Pi - w),
		o.pointAt(0),
		o.pointAt(math.Pi),
	}
	if method&ephemeris.NodeFocal != 0 {
		pts[3] = o.rotate(-2*o.a*o.e, 0)
	}

	if flags&ephemeris.FlagHelio == 0 {
		earth := planets[ephemeris.Earth].at(t).position()
		for k := range pts {
			pts[k] = sub(pts[k], earth)
		}
	}
	for k := range pts {
		pts[k] = spherical(pts[k])
	}
	return pts, nil
}

// speed differentiates two spherical positions 2*speedStep apart. The
// longitude difference is taken the short way round.
func speed(before, after [3]float64) (lon, lat, dist float64) {
	dl := after[0] - before[0]
	if dl > 180 {
		dl -= 360
	} else if dl < -180 {
		dl += 360
	}
	return dl / (2 * speedStep), (after[1] - before[1]) / (2 * speedStep), (after[2] - before[2]) / (2 * speedStep)
}

// obliquity is the mean obliquity of the ecliptic in degrees.
func obliquity(t float64) float64 {
	return 23.439291 - 0.0130042*t
}

// toEquatorial converts ecliptic longitude and latitude to right ascension
// and declination, all in degrees.
func toEquatorial(lon, lat, eps float64) (ra, dec float64) {
	l, b, e := rad(lon), rad(lat), rad(eps)
	ra = deg(math.Atan2(math.Sin(l)*math.Cos(e)-math.Tan(b)*math.Sin(e), math.Cos(l)))
	dec = deg(math.Asin(math.Sin(b)*math.Cos(e) + math.Cos(b)*math.Sin(e)*math.Sin(l)))
	return transform.NormalizeDegrees(ra), dec
}

func spherical(p [3]float64) [3]float64 {
	r := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	if r == 0 {
		return [3]float64{}
	}
	lon := transform.NormalizeDegrees(deg(math.Atan2(p[1], p[0])))
	lat := deg(math.Asin(p[2] / r))
	return [3]float64{lon, lat, r}
}

func rect(lon, lat, r float64) [3]float64 {
	l, b := rad(lon), rad(lat)
	return [3]float64{r * math.Cos(b) * math.Cos(l), r * math.Cos(b) * math.Sin(l), r * math.Sin(b)}
}

func add(a, b [3]float64) [3]float64 { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func neg(a [3]float64) [3]float64    { return [3]float64{-a[0], -a[1], -a[2]} }
