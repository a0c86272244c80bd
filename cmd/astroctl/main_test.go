package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/astroahava/astro-sweph/internal/report"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("astroctl %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestCommandsPrintDocuments(t *testing.T) {
	date := []string{"--year", "2023", "--month", "12", "--day", "25", "--hour", "12"}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"chart", append([]string{"chart", "--lon", "0:6:0:W", "--lat", "51:30:0:N"}, date...), `"houses"`},
		{"planets", append([]string{"planets"}, date...), `"planets"`},
		{"planet", append([]string{"planet", "4"}, date...), `"jd_ut"`},
		{"houses", append([]string{"houses", "--hsys", "E"}, date...), `"ascmc"`},
		{"nodes", append([]string{"nodes", "--method", "1"}, date...), `"nodes"`},
		{"single node", []string{"nodes", "4", "--jd-et", "2451545"}, `"jd_et": 2451545.000000`},
		{"asteroid range", append([]string{"asteroids", "--start", "1", "--end", "3"}, date...), `"asteroid_range"`},
		{"asteroid list", append([]string{"asteroids", "--list", "1,4"}, date...), `"requested_list": "1,4"`},
		{"julian day", append([]string{"jd"}, date...), `"julian_day": 2460304.000000`},
		{"info", []string{"info", "--ephe-path", "/srv/eph"}, `"/srv/eph"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, tt.args...)
			if !json.Valid([]byte(out)) {
				t.Fatalf("output is not valid JSON:\n%s", out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output does not contain %s:\n%s", tt.want, out)
			}
		})
	}
}

func TestTestAndDMS(t *testing.T) {
	if got := strings.TrimSpace(run(t, "test")); got != report.Banner {
		t.Errorf("test = %q, want %q", got, report.Banner)
	}
	if got := run(t, "dms", "185.5", "--flags", "4"); !strings.Contains(got, "li") {
		t.Errorf("dms = %q, want a Libra position", got)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := [][]string{
		{"planets", "--month", "13"},
		{"chart", "--month", "1", "--lon", "bogus"},
		{"houses", "--month", "1", "--hsys", "PP"},
		{"planet", "mars"},
		{"dms", "north"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(args)
			if err := rootCmd.Execute(); err == nil {
				t.Errorf("astroctl %v succeeded, want an error", args)
			}
		})
	}
}
