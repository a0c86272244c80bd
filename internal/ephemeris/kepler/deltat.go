package kepler

import "github.com/astroahava/astro-sweph/internal/transform"

// deltaT returns TT-UT in days for a UT Julian day, from the Espenak-Meeus
// polynomial fits.
func deltaT(jdUT float64) float64 {
	y := 2000 + (jdUT-transform.J2000)/365.25
	var dt float64

	switch {
	case y >= 2050 && y < 2150:
		u := (y - 1820) / 100
		dt = -20 + 32*u*u - 0.5628*(2150-y)
	case y >= 2005 && y < 2050:
		t := y - 2000
		dt = 62.92 + 0.32217*t + 0.005589*t*t
	case y >= 1986 && y < 2005:
		t := y - 2000
		dt = 63.86 + 0.3345*t - 0.060374*t*t + 0.0017275*t*t*t + 0.000651814*t*t*t*t + 0.00002373599*t*t*t*t*t
	case y >= 1961 && y < 1986:
		t := y - 1975
		dt = 45.45 + 1.067*t - t*t/260 - t*t*t/718
	case y >= 1941 && y < 1961:
		t := y - 1950
		dt = 29.07 + 0.407*t - t*t/233 + t*t*t/2547
	case y >= 1920 && y < 1941:
		t := y - 1920
		dt = 21.20 + 0.84493*t - 0.076100*t*t + 0.0020936*t*t*t
	case y >= 1900 && y < 1920:
		t := y - 1900
		dt = -2.79 + 1.494119*t - 0.0598939*t*t + 0.0061966*t*t*t - 0.000197*t*t*t*t
	default:
		u := (y - 1820) / 100
		dt = -20 + 32*u*u
	}

	return dt / 86400
}
