package api

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/transform"
)

// errParam marks a query parameter that is missing or out of range.
var errParam = errors.New("invalid parameter")

const maxYear = 99999

// intParam reads key as an integer in [lo, hi]. An absent key yields def, or
// an error when required is set.
func intParam(q url.Values, key string, def, lo, hi int, required bool) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		if required {
			return 0, fmt.Errorf("%s is required: %w", key, errParam)
		}
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, errParam)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d: %w", key, lo, hi, errParam)
	}
	return n, nil
}

// floatParam reads key as a finite number.
func floatParam(q url.Values, key string) (float64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required: %w", key, errParam)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a finite number: %w", key, errParam)
	}
	return f, nil
}

// dateParams reads year, month and day (required) and hour, minute and
// second (default 0).
func dateParams(q url.Values) (ephemeris.DateTime, error) {
	var dt ephemeris.DateTime
	fields := []struct {
		key      string
		dst      *int
		lo, hi   int
		required bool
	}{
		{"year", &dt.Year, -maxYear, maxYear, true},
		{"month", &dt.Month, 1, 12, true},
		{"day", &dt.Day, 1, 31, true},
		{"hour", &dt.Hour, 0, 23, false},
		{"minute", &dt.Minute, 0, 59, false},
		{"second", &dt.Second, 0, 59, false},
	}
	for _, f := range fields {
		n, err := intParam(q, f.key, 0, f.lo, f.hi, f.required)
		if err != nil {
			return dt, err
		}
		*f.dst = n
	}
	return dt, nil
}

// geoParams reads lon=D:M:S:E|W and lat=D:M:S:N|S.
func geoParams(q url.Values) (transform.GeoPosition, error) {
	lon, err := coordinateParam(q, "lon", "EW", 180)
	if err != nil {
		return transform.GeoPosition{}, err
	}
	lat, err := coordinateParam(q, "lat", "NS", 90)
	if err != nil {
		return transform.GeoPosition{}, err
	}
	return transform.NewGeoPosition(lon, lat), nil
}

func coordinateParam(q url.Values, key, hemispheres string, maxDeg int) (transform.Coordinate, error) {
	v := q.Get(key)
	if v == "" {
		return transform.Coordinate{}, fmt.Errorf("%s is required: %w", key, errParam)
	}
	c, err := transform.ParseCoordinate(v, hemispheres)
	if err != nil {
		return c, fmt.Errorf("%s: %w", key, err)
	}
	if c.Deg < 0 || c.Min < 0 || c.Min > 59 || c.Sec < 0 || c.Sec > 59 || c.Decimal() > float64(maxDeg) || c.Decimal() < -float64(maxDeg) {
		return c, fmt.Errorf("%s %s out of range: %w", key, c, errParam)
	}
	return c, nil
}

// houseParam reads hsys as a single letter.
func houseParam(q url.Values, def byte) (byte, error) {
	v := q.Get("hsys")
	if v == "" {
		return def, nil
	}
	if len(v) != 1 || !isLetter(v[0]) {
		return 0, fmt.Errorf("hsys must be a single letter: %w", errParam)
	}
	return strings.ToUpper(v)[0], nil
}

func isLetter(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }

const nodeMethodMask = ephemeris.NodeMean | ephemeris.NodeOscu | ephemeris.NodeOscuBar | ephemeris.NodeFocal

// methodParam reads method as a combination of node method bits.
func methodParam(q url.Values) (ephemeris.NodeMethod, error) {
	n, err := intParam(q, "method", int(ephemeris.NodeMean), 0, int(nodeMethodMask), false)
	if err != nil {
		return 0, err
	}
	if ephemeris.NodeMethod(n)&^nodeMethodMask != 0 {
		return 0, fmt.Errorf("method %d has unknown bits: %w", n, errParam)
	}
	return ephemeris.NodeMethod(n), nil
}

// bodyParam reads a body id path value: a major body or an asteroid id.
func bodyParam(v string) (ephemeris.BodyID, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("body id must be an integer: %w", errParam)
	}
	id := ephemeris.BodyID(n)
	if (id < ephemeris.Sun || id >= ephemeris.NumBodies) && !id.IsAsteroid() {
		return 0, fmt.Errorf("body id %d is neither a major body nor an asteroid: %w", n, errParam)
	}
	return id, nil
}
