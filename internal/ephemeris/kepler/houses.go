package kepler

import (
	"errors"
	"fmt"
	"math"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/transform"
)

// ErrPolarCircle is returned when Placidus cusps do not exist at the
// observer's latitude. Porphyry cusps are returned instead.
var ErrPolarCircle = errors.New("placidus houses undefined within the polar circle")

// Houses computes house cusps for an observer at lat/lon (degrees, east and
// north positive). Supported systems are Placidus 'P', Porphyry 'O', Equal
// 'E' or 'A' and Whole sign 'W'; any other letter is computed as Placidus.
func (e *Engine) Houses(jdUT float64, _ ephemeris.Flags, lat, lon float64, system byte) (ephemeris.HouseResult, error) {
	t := transform.JulianCenturies(jdUT + deltaT(jdUT))
	eps := obliquity(t)

	// Sidereal time at Greenwich from go-satellite, radians.
	armc := transform.NormalizeDegrees(deg(satellite.ThetaG_JD(jdUT)) + lon)
	asc, mc := angles(armc, lat, eps)

	h := ephemeris.HouseResult{System: system, Asc: asc, MC: mc}

	switch system {
	case 'E', 'A':
		for i := 1; i <= 12; i++ {
			h.Cusps[i] = transform.NormalizeDegrees(asc + float64(i-1)*30)
		}
	case 'W':
		first := math.Floor(asc/30) * 30
		for i := 1; i <= 12; i++ {
			h.Cusps[i] = transform.NormalizeDegrees(first + float64(i-1)*30)
		}
	case 'O':
		h.Cusps = porphyry(asc, mc)
	default:
		h.System = 'P'
		cusps, err := placidus(armc, lat, eps)
		if err != nil {
			h.System = 'O'
			h.Cusps = porphyry(asc, mc)
			return h, fmt.Errorf("house system %c at latitude %.4f: %w", system, lat, err)
		}
		cusps[1], cusps[10] = asc, mc
		cusps[4], cusps[7] = transform.NormalizeDegrees(mc+180), transform.NormalizeDegrees(asc+180)
		h.Cusps = cusps
	}
	return h, nil
}

// angles returns the ascendant and midheaven for a sidereal angle armc.
func angles(armc, lat, eps float64) (asc, mc float64) {
	r, e, phi := rad(armc), rad(eps), rad(lat)
	mc = deg(math.Atan2(math.Sin(r), math.Cos(r)*math.Cos(e)))
	asc = deg(math.Atan2(math.Cos(r), -(math.Sin(r)*math.Cos(e) + math.Tan(phi)*math.Sin(e))))
	return transform.NormalizeDegrees(asc), transform.NormalizeDegrees(mc)
}

// porphyry trisects each quadrant between the angles.
func porphyry(asc, mc float64) [13]float64 {
	var c [13]float64
	upper := transform.NormalizeDegrees(asc - mc) // MC to Asc
	lower := 180 - upper                          // Asc to IC

	c[1] = asc
	c[2] = asc + lower/3
	c[3] = asc + 2*lower/3
	c[10] = mc
	c[11] = mc + upper/3
	c[12] = mc + 2*upper/3
	for i := 1; i <= 3; i++ {
		c[i+6] = c[i] + 180
		c[i+3] = c[i+9] + 180
	}
	for i := 1; i <= 12; i++ {
		c[i] = transform.NormalizeDegrees(c[i])
	}
	return c
}

// placidus finds the intermediate cusps by trisecting diurnal and nocturnal
// semi-arcs. Cusps 1, 4, 7 and 10 are left for the caller.
func placidus(armc, lat, eps float64) ([13]float64, error) {
	var c [13]float64
	for _, q := range []struct {
		cusp  int
		frac  float64
		upper bool
	}{
		{11, 1.0 / 3, true},
		{12, 2.0 / 3, true},
		{2, 2.0 / 3, false},
		{3, 1.0 / 3, false},
	} {
		lon, err := placidusCusp(armc, lat, eps, q.frac, q.upper)
		if err != nil {
			return c, err
		}
		opposite := q.cusp + 6
		if opposite > 12 {
			opposite -= 12
		}
		c[q.cusp] = lon
		c[opposite] = transform.NormalizeDegrees(lon + 180)
	}
	return c, nil
}

func placidusCusp(armc, lat, eps, frac float64, upper bool) (float64, error) {
	tanPhi := math.Tan(rad(lat))
	e := rad(eps)

	ra := armc + 90*frac
	if !upper {
		ra = armc + 180 - 90*frac
	}
	for k := 0; k < 50; k++ {
		lon := math.Atan2(math.Sin(rad(ra)), math.Cos(rad(ra))*math.Cos(e))
		dec := math.Asin(math.Sin(e) * math.Sin(lon))
		x := tanPhi * math.Tan(dec)
		if math.Abs(x) > 1 {
			return 0, ErrPolarCircle
		}
		ad := deg(math.Asin(x))

		next := armc + frac*(90+ad)
		if !upper {
			next = armc + 180 - frac*(90-ad)
		}
		if math.Abs(next-ra) < 1e-9 {
			ra = next
			break
		}
		ra = next
	}
	lon := math.Atan2(math.Sin(rad(ra)), math.Cos(rad(ra))*math.Cos(e))
	return transform.NormalizeDegrees(deg(lon)), nil
}
