package transform

import "math"

// J2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const J2000 = 2451545.0

// DecimalHour folds hour, minute and second into fractional hours.
func DecimalHour(hour, minute, second int) float64 {
	return float64(hour) + float64(minute)/60.0 + float64(second)/3600.0
}

// JulianDay converts a Gregorian calendar date and fractional UT hour to a
// Julian Day number. Uses the standard astronomical algorithm (Meeus ch. 7),
// valid for dates after March 1, 4801 BC. Month and day are not range checked;
// out-of-range values roll over arithmetically.
func JulianDay(year, month, day int, hour float64) float64 {
	y := float64(year)
	m := float64(month)
	d := float64(day)

	// Treat Jan/Feb as months 13/14 of the previous year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + B - 1524.5
	jd += hour / 24.0

	return jd
}

// JulianCenturies returns Julian centuries elapsed since J2000.0.
func JulianCenturies(jd float64) float64 {
	return (jd - J2000) / 36525.0
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
