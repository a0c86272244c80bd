package kepler

import (
	"math"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
)

// elements are mean heliocentric orbital elements referred to the J2000
// ecliptic, with linear rates per Julian century.
type elements struct {
	a, aDot       float64 // semi-major axis, AU
	e, eDot       float64 // eccentricity
	i, iDot       float64 // inclination, deg
	l, lDot       float64 // mean longitude, deg
	peri, periDot float64 // longitude of perihelion, deg
	node, nodeDot float64 // longitude of ascending node, deg
}

// Planetary elements valid 1800-2050 (Standish, JPL). Outside that window
// they degrade gracefully.
var planets = map[ephemeris.BodyID]elements{
	ephemeris.Mercury: {0.38709927, 0.00000037, 0.20563593, 0.00001906, 7.00497902, -0.00594749, 252.25032350, 149472.67411175, 77.45779628, 0.16047689, 48.33076593, -0.12534081},
	ephemeris.Venus:   {0.72333566, 0.00000390, 0.00677672, -0.00004107, 3.39467605, -0.00078890, 181.97909950, 58517.81538729, 131.60246718, 0.00268329, 76.67984255, -0.27769418},
	ephemeris.Earth:   {1.00000261, 0.00000562, 0.01671123, -0.00004392, -0.00001531, -0.01294668, 100.46457166, 35999.37244981, 102.93768193, 0.32327364, 0, 0},
	ephemeris.Mars:    {1.52371034, 0.00001847, 0.09339410, 0.00007882, 1.84969142, -0.00813131, -4.55343205, 19140.30268499, -23.94362959, 0.44441088, 49.55953891, -0.29257343},
	ephemeris.Jupiter: {5.20288700, -0.00011607, 0.04838624, -0.00013253, 1.30439695, -0.00183714, 34.39644051, 3034.74612775, 14.72847983, 0.21252668, 100.47390909, 0.20469106},
	ephemeris.Saturn:  {9.53667594, -0.00125060, 0.05386179, -0.00050991, 2.48599187, 0.00193609, 49.95424423, 1222.49362201, 92.59887831, -0.41897216, 113.66242448, -0.28867794},
	ephemeris.Uranus:  {19.18916464, -0.00196176, 0.04725744, -0.00004397, 0.77263783, -0.00242939, 313.23810451, 428.48202785, 170.95427630, 0.40805281, 74.01692503, 0.04240589},
	ephemeris.Neptune: {30.06992276, 0.00026291, 0.00859048, 0.00005105, 1.77004347, 0.00035372, -55.12002969, 218.45945325, 44.96476227, -0.32241464, 131.78422574, -0.00508664},
	ephemeris.Pluto:   {39.48211675, -0.00031596, 0.24882730, 0.00005170, 17.14001206, 0.00004818, 238.92903833, 145.20780515, 224.06891629, -0.04062942, 110.30393684, -0.01183482},
}

// minorPlanet is a numbered minor planet with fixed osculating elements at
// J2000. The mean motion follows from the semi-major axis.
type minorPlanet struct {
	number  int
	name    string
	a, e    float64
	i       float64
	node    float64
	argPeri float64
	m0      float64 // mean anomaly at J2000, deg
}

var minorPlanets = []minorPlanet{
	{number: 1, name: "Ceres", a: 2.7675, e: 0.0758, i: 10.593, node: 80.305, argPeri: 73.597, m0: 6.07},
	{number: 2, name: "Pallas", a: 2.7724, e: 0.2302, i: 34.841, node: 173.080, argPeri: 310.048, m0: 352.96},
	{number: 3, name: "Juno", a: 2.6700, e: 0.2562, i: 12.991, node: 169.851, argPeri: 248.139, m0: 33.08},
	{number: 4, name: "Vesta", a: 2.3615, e: 0.0887, i: 7.140, node: 103.810, argPeri: 151.198, m0: 341.87},
	{number: 2060, name: "Chiron", a: 13.692, e: 0.3789, i: 6.935, node: 209.299, argPeri: 339.254, m0: 27.81},
	{number: 5145, name: "Pholus", a: 20.431, e: 0.5720, i: 24.660, node: 119.284, argPeri: 354.873, m0: 88.53},
}

// minorByBody maps both the fixed body ids and the asteroid ids onto the
// element table.
var minorByBody = func() map[ephemeris.BodyID]minorPlanet {
	fixed := map[int]ephemeris.BodyID{
		1:    ephemeris.Ceres,
		2:    ephemeris.Pallas,
		3:    ephemeris.Juno,
		4:    ephemeris.Vesta,
		2060: ephemeris.Chiron,
		5145: ephemeris.Pholus,
	}
	m := make(map[ephemeris.BodyID]minorPlanet, 2*len(minorPlanets))
	for _, mp := range minorPlanets {
		m[ephemeris.Asteroid(mp.number)] = mp
		m[fixed[mp.number]] = mp
	}
	return m
}()

// at evaluates planetary elements for t Julian centuries since J2000.
func (el elements) at(t float64) orbit {
	return orbit{
		a:    el.a + el.aDot*t,
		e:    el.e + el.eDot*t,
		i:    el.i + el.iDot*t,
		node: el.node + el.nodeDot*t,
		peri: el.peri + el.periDot*t,
		m:    (el.l + el.lDot*t) - (el.peri + el.periDot*t),
	}
}

// at evaluates minor planet elements for t Julian centuries since J2000.
func (mp minorPlanet) at(t float64) orbit {
	n := 0.9856076686 / math.Pow(mp.a, 1.5) // deg/day
	return orbit{
		a:    mp.a,
		e:    mp.e,
		i:    mp.i,
		node: mp.node,
		peri: mp.node + mp.argPeri,
		m:    mp.m0 + n*t*36525,
	}
}

// orbit is a set of elements at one instant.
type orbit struct {
	a, e, i    float64
	node, peri float64 // deg
	m          float64 // mean anomaly, deg
}

// eccentricAnomaly solves Kepler's equation by Newton iteration. m in radians.
func eccentricAnomaly(m, e float64) float64 {
	E := m + e*math.Sin(m)
	for k := 0; k < 30; k++ {
		d := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= d
		if math.Abs(d) < 1e-12 {
			break
		}
	}
	return E
}

// position returns heliocentric ecliptic rectangular coordinates in AU.
func (o orbit) position() [3]float64 {
	E := eccentricAnomaly(rad(o.m), o.e)
	xp := o.a * (math.Cos(E) - o.e)
	yp := o.a * math.Sqrt(1-o.e*o.e) * math.Sin(E)
	return o.rotate(xp, yp)
}

// pointAt returns the heliocentric position of the orbit point with true
// anomaly nu (radians).
func (o orbit) pointAt(nu float64) [3]float64 {
	r := o.a * (1 - o.e*o.e) / (1 + o.e*math.Cos(nu))
	return o.rotate(r*math.Cos(nu), r*math.Sin(nu))
}

// rotate takes orbital plane coordinates to the ecliptic frame.
func (o orbit) rotate(xp, yp float64) [3]float64 {
	w := rad(o.peri - o.node)
	N := rad(o.node)
	I := rad(o.i)

	cw, sw := math.Cos(w), math.Sin(w)
	cN, sN := math.Cos(N), math.Sin(N)
	cI, sI := math.Cos(I), math.Sin(I)

	return [3]float64{
		(cw*cN-sw*sN*cI)*xp + (-sw*cN-cw*sN*cI)*yp,
		(cw*sN+sw*cN*cI)*xp + (-sw*sN+cw*cN*cI)*yp,
		(sw*sI)*xp + (cw*sI)*yp,
	}
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }
