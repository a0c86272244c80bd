package kepler

import "math"

const auKm = 149597870.7

// lunarArgs are the fundamental arguments of the lunar theory, in degrees.
type lunarArgs struct {
	l  float64 // mean longitude
	d  float64 // mean elongation
	m  float64 // solar mean anomaly
	mp float64 // lunar mean anomaly
	f  float64 // argument of latitude
}

func newLunarArgs(t float64) lunarArgs {
	return lunarArgs{
		l:  218.3164477 + 481267.88123421*t,
		d:  297.8501921 + 445267.1114034*t,
		m:  357.5291092 + 35999.0502909*t,
		mp: 134.9633964 + 477198.8675055*t,
		f:  93.2720950 + 483202.0175233*t,
	}
}

// moon returns the geocentric ecliptic longitude, latitude (deg) and distance
// (AU) of the Moon from the largest periodic terms.
func moon(t float64) (lon, lat, dist float64) {
	a := newLunarArgs(t)
	D, M, Mp, F := rad(a.d), rad(a.m), rad(a.mp), rad(a.f)

	lon = a.l +
		6.288774*math.Sin(Mp) +
		1.274027*math.Sin(2*D-Mp) +
		0.658314*math.Sin(2*D) +
		0.213618*math.Sin(2*Mp) -
		0.185116*math.Sin(M) -
		0.114332*math.Sin(2*F)

	lat = 5.128122*math.Sin(F) +
		0.280602*math.Sin(Mp+F) +
		0.277693*math.Sin(Mp-F) +
		0.173237*math.Sin(2*D-F)

	km := 385000.56 -
		20905.355*math.Cos(Mp) -
		3699.111*math.Cos(2*D-Mp) -
		2955.968*math.Cos(2*D) -
		569.925*math.Cos(2*Mp)

	return lon, lat, km / auKm
}

// meanNode is the longitude of the mean ascending lunar node.
func meanNode(t float64) float64 {
	return 125.0445479 - 1934.1362891*t + 0.0020754*t*t
}

// trueNode adds the main oscillation terms to the mean node.
func trueNode(t float64) float64 {
	a := newLunarArgs(t)
	return meanNode(t) -
		1.4979*math.Sin(2*rad(a.d-a.f)) -
		0.1500*math.Sin(rad(a.m)) -
		0.1226*math.Sin(2*rad(a.d)) +
		0.1176*math.Sin(2*rad(a.f)) -
		0.0801*math.Sin(2*rad(a.mp-a.f))
}

// meanApogee is the longitude of the mean lunar apogee.
func meanApogee(t float64) float64 {
	return 83.3532465 + 4069.0137287*t - 0.0103200*t*t + 180
}

// oscuApogee perturbs the mean apogee by the evection-driven terms.
func oscuApogee(t float64) float64 {
	a := newLunarArgs(t)
	return meanApogee(t) +
		4.6*math.Sin(2*rad(a.d-a.mp)) +
		1.2*math.Sin(4*rad(a.d-a.mp))
}

// Mean distances of the lunar node and apogee, AU.
const (
	nodeDist    = 0.002569555
	apogeeDist  = 0.002710625
	perigeeDist = 0.002424
)
