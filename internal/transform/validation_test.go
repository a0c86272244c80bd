package transform

import (
	"math"
	"testing"

	satellite "github.com/joshuaferrara/go-satellite"
)

// TestJulianDay verifies the Julian Day calculation against known values.
func TestJulianDay(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		month    int
		day      int
		hour     float64
		expected float64
	}{
		{name: "J2000.0 epoch", year: 2000, month: 1, day: 1, hour: 12, expected: 2451545.0},
		{name: "Unix epoch", year: 1970, month: 1, day: 1, hour: 0, expected: 2440587.5},
		{name: "Meeus example 7.a", year: 1957, month: 10, day: 4, hour: 19.26, expected: 2436116.3025},
		{name: "Gregorian reform", year: 1582, month: 10, day: 15, hour: 0, expected: 2299160.5},
		{name: "Christmas 2023 noon", year: 2023, month: 12, day: 25, hour: 12, expected: 2460304.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDay(tt.year, tt.month, tt.day, tt.hour)
			diff := math.Abs(got - tt.expected)
			if diff > 1e-6 {
				t.Errorf("JulianDay(%d-%02d-%02d %.2fh) = %.10f, want %.10f (diff=%.2e)",
					tt.year, tt.month, tt.day, tt.hour, got, tt.expected, diff)
			}
		})
	}
}

// TestJulianDayMatchesLibrary validates JulianDay against go-satellite's JDay,
// which uses an independent formula valid for 1900-2100.
func TestJulianDayMatchesLibrary(t *testing.T) {
	dates := [][6]int{
		{2000, 1, 1, 12, 0, 0},
		{2004, 4, 6, 7, 51, 28},
		{2023, 12, 25, 12, 0, 0},
		{2026, 2, 6, 4, 1, 0},
		{1955, 7, 31, 23, 59, 59},
	}

	for _, d := range dates {
		ours := JulianDay(d[0], d[1], d[2], DecimalHour(d[3], d[4], d[5]))
		ref := satellite.JDay(d[0], d[1], d[2], d[3], d[4], d[5])
		if diff := math.Abs(ours - ref); diff > 1e-6 {
			t.Errorf("JulianDay(%v) = %.8f, go-satellite = %.8f (diff=%.2e)", d, ours, ref, diff)
		}
	}
}

func TestDecimalHour(t *testing.T) {
	if got := DecimalHour(12, 30, 36); math.Abs(got-12.51) > 1e-12 {
		t.Errorf("DecimalHour(12, 30, 36) = %v, want 12.51", got)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{-30, 330},
		{725, 5},
		{-725, 355},
	}
	for _, tt := range tests {
		if got := NormalizeDegrees(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
