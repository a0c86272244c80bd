// Package format renders numeric ephemeris values and free text for embedding
// in JSON documents.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Flags selects the layout produced by Degrees.
type Flags int

const (
	RoundSec   Flags = 1    // round to the nearest arc second
	RoundMin   Flags = 2    // round to the nearest arc minute
	Zodiac     Flags = 4    // sign-relative notation
	Equatorial Flags = 2048 // hour notation; shares its bit with the engine's equatorial flag
)

// Unit symbols for the plain layout.
const (
	DegreeSymbol = "°"
	HourSymbol   = "h"
)

// Signs holds the zodiac sign abbreviations, starting at 0° Aries.
var Signs = [12]string{
	"ar", "ta", "ge", "cn", "le", "vi",
	"li", "sc", "sa", "cp", "aq", "pi",
}

// Arc units in ten-thousandths of a second, the finest unit rendered.
const (
	ticksPerSecond = 10000
	ticksPerMinute = 60 * ticksPerSecond
	ticksPerDegree = 60 * ticksPerMinute
	fullCircle     = 360 * ticksPerDegree
)

// tickSnap absorbs the floating-point residue of the modulo and scaling so
// that x and x+360k land on the same tick.
const tickSnap = 1e-3

// Degrees converts a decimal degree value to degree/minute/second notation.
//
// The value is normalized to [0, 360) by absolute value; a negative input is
// marked by a single '-' placed on the separator in front of the first digit,
// or prefixed when no separator precedes that digit. The sign is never
// dropped, so wide negative values render one byte longer.
// Zodiac layouts look like " 5 li 45'32.4000", plain layouts like
// "185°45'32.4000". RoundMin stops at minutes, RoundSec at seconds; without
// either, four digits of fractional seconds are kept.
func Degrees(value float64, flags Flags) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	negative := value < 0
	ticks := int64(math.Mod(math.Abs(value), 360)*ticksPerDegree+tickSnap) % fullCircle

	if flags&RoundMin != 0 {
		ticks += ticksPerMinute / 2
	}
	if flags&RoundSec != 0 {
		ticks += ticksPerSecond / 2
	}
	// Rounding can carry a value just below 360 over the edge.
	ticks %= fullCircle

	var s string
	if flags&Zodiac != 0 {
		sign := ticks / (30 * ticksPerDegree)
		d, m, sec, frac := split(ticks % (30 * ticksPerDegree))
		switch {
		case flags&RoundMin != 0:
			s = fmt.Sprintf("%2d %s %2d", d, Signs[sign], m)
		case flags&RoundSec != 0:
			s = fmt.Sprintf("%2d %s %2d'%2d", d, Signs[sign], m, sec)
		default:
			s = fmt.Sprintf("%2d %s %2d'%2d.%04d", d, Signs[sign], m, sec, frac)
		}
	} else {
		unit := DegreeSymbol
		if flags&Equatorial != 0 {
			unit = HourSymbol
		}
		d, m, sec, frac := split(ticks)
		switch {
		case flags&RoundMin != 0:
			s = fmt.Sprintf("%3d%s%2d'", d, unit, m)
		case flags&RoundSec != 0:
			s = fmt.Sprintf("%3d%s%2d'%2d", d, unit, m, sec)
		default:
			s = fmt.Sprintf("%3d%s%2d'%2d.%04d", d, unit, m, sec, frac)
		}
	}

	if negative {
		s = markNegative(s)
	}
	return s
}

// split decomposes a tick count into whole degrees, minutes, seconds and
// ten-thousandths of a second.
func split(ticks int64) (deg, min, sec, frac int64) {
	deg = ticks / ticksPerDegree
	ticks %= ticksPerDegree
	min = ticks / ticksPerMinute
	ticks %= ticksPerMinute
	return deg, min, ticks / ticksPerSecond, ticks % ticksPerSecond
}

func markNegative(s string) string {
	i := strings.IndexAny(s, "0123456789")
	switch {
	case i < 0:
		return s
	case i == 0:
		return "-" + s
	default:
		return s[:i-1] + "-" + s[i:]
	}
}
