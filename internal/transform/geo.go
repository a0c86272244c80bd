// Package transform holds the small amount of coordinate and calendar
// arithmetic the reporting layer performs itself: geographic coordinate
// normalization and Julian day conversion.
package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Coordinate is a geographic angle as entered by a user: whole degrees,
// minutes, seconds and a hemisphere letter (N, S, E or W).
type Coordinate struct {
	Deg        int
	Min        int
	Sec        int
	Hemisphere byte
}

// String renders the coordinate as D:M:S:H.
func (c Coordinate) String() string {
	return fmt.Sprintf("%d:%d:%d:%c", c.Deg, c.Min, c.Sec, c.Hemisphere)
}

// Decimal returns the coordinate in signed decimal degrees.
func (c Coordinate) Decimal() float64 {
	return Normalize(c.Deg, c.Min, c.Sec, c.Hemisphere)
}

// Normalize converts degrees, minutes and seconds to decimal degrees,
// negated for the west and south hemispheres. Inputs are not range checked.
func Normalize(deg, min, sec int, hemisphere byte) float64 {
	v := float64(deg) + float64(min)/60.0 + float64(sec)/3600.0
	switch hemisphere {
	case 'W', 'w', 'S', 's':
		return -v
	}
	return v
}

// GeoPosition is an observer location in signed decimal degrees
// (east longitude and north latitude positive).
type GeoPosition struct {
	Longitude float64
	Latitude  float64
}

// NewGeoPosition derives a GeoPosition from longitude and latitude entries.
func NewGeoPosition(lon, lat Coordinate) GeoPosition {
	return GeoPosition{
		Longitude: lon.Decimal(),
		Latitude:  lat.Decimal(),
	}
}

// ErrBadCoordinate is returned by ParseCoordinate for malformed input.
var ErrBadCoordinate = errors.New("coordinate must look like D:M:S:H")

// ParseCoordinate parses a coordinate written as "D:M:S:H" or "D:M:H", where H
// must be one of the letters in hemispheres (for example "EW" or "NS").
func ParseCoordinate(s, hemispheres string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 && len(parts) != 4 {
		return Coordinate{}, fmt.Errorf("%q: %w", s, ErrBadCoordinate)
	}

	h := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))
	if len(h) != 1 || !strings.Contains(strings.ToUpper(hemispheres), h) {
		return Coordinate{}, fmt.Errorf("%q: hemisphere must be one of %s: %w", s, hemispheres, ErrBadCoordinate)
	}

	var nums [3]int
	for i, p := range parts[:len(parts)-1] {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Coordinate{}, fmt.Errorf("%q: %w", s, ErrBadCoordinate)
		}
		nums[i] = n
	}

	return Coordinate{Deg: nums[0], Min: nums[1], Sec: nums[2], Hemisphere: h[0]}, nil
}
