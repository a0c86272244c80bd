package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/format"
	"github.com/astroahava/astro-sweph/internal/report"
	"github.com/astroahava/astro-sweph/internal/transform"
)

// Command flags
var (
	date     ephemeris.DateTime
	lon, lat string
	hsys     string
	capacity int
	method   int
	jdET     float64
	list     string
	start    int
	end      int
	dmsFlags int
)

func addDateFlags(c *cobra.Command) {
	c.Flags().IntVar(&date.Year, "year", 2000, "Year (negative for BCE, astronomical numbering)")
	c.Flags().IntVar(&date.Month, "month", 1, "Month 1-12")
	c.Flags().IntVar(&date.Day, "day", 1, "Day of month")
	c.Flags().IntVar(&date.Hour, "hour", 12, "Hour 0-23 UT")
	c.Flags().IntVar(&date.Minute, "minute", 0, "Minute 0-59")
	c.Flags().IntVar(&date.Second, "second", 0, "Second 0-59")
}

func addGeoFlags(c *cobra.Command) {
	c.Flags().StringVar(&lon, "lon", "0:0:0:E", "Longitude as D:M:S:E|W")
	c.Flags().StringVar(&lat, "lat", "0:0:0:N", "Latitude as D:M:S:N|S")
	c.Flags().StringVar(&hsys, "hsys", "P", "House system letter")
}

// emit writes a document followed by a newline.
func emit(cmd *cobra.Command, d *report.Document) error {
	defer d.Release()
	_, err := fmt.Fprintln(cmd.OutOrStdout(), d.String())
	return err
}

func capacityOr(def int) int {
	if capacity > 0 {
		return capacity
	}
	return def
}

func checkDate() error {
	switch {
	case date.Month < 1 || date.Month > 12:
		return fmt.Errorf("month %d out of range", date.Month)
	case date.Day < 1 || date.Day > 31:
		return fmt.Errorf("day %d out of range", date.Day)
	case date.Hour < 0 || date.Hour > 23, date.Minute < 0 || date.Minute > 59, date.Second < 0 || date.Second > 59:
		return fmt.Errorf("time %02d:%02d:%02d out of range", date.Hour, date.Minute, date.Second)
	}
	return nil
}

func position() (transform.GeoPosition, byte, error) {
	lo, err := transform.ParseCoordinate(lon, "EW")
	if err != nil {
		return transform.GeoPosition{}, 0, fmt.Errorf("--lon: %w", err)
	}
	la, err := transform.ParseCoordinate(lat, "NS")
	if err != nil {
		return transform.GeoPosition{}, 0, fmt.Errorf("--lat: %w", err)
	}
	if len(hsys) != 1 {
		return transform.GeoPosition{}, 0, fmt.Errorf("--hsys must be a single letter, got %q", hsys)
	}
	return transform.NewGeoPosition(lo, la), hsys[0], nil
}

func parseBody(arg string) (ephemeris.BodyID, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("body id %q is not a number", arg)
	}
	return ephemeris.BodyID(n), nil
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Print the liveness banner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), gen.Test())
		return err
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a full chart: bodies, angles and house cusps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDate(); err != nil {
			return err
		}
		pos, system, err := position()
		if err != nil {
			return err
		}
		return emit(cmd, gen.Chart(date, pos, system, capacityOr(report.ChartCapacity)))
	},
}

var planetsCmd = &cobra.Command{
	Use:   "planets",
	Short: "Render the positions of the major bodies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDate(); err != nil {
			return err
		}
		return emit(cmd, gen.Planets(date))
	},
}

var planetCmd = &cobra.Command{
	Use:   "planet [id]",
	Short: "Render one body (asteroids are 10000 + catalog number)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDate(); err != nil {
			return err
		}
		id, err := parseBody(args[0])
		if err != nil {
			return err
		}
		return emit(cmd, gen.Planet(id, date))
	},
}

var housesCmd = &cobra.Command{
	Use:   "houses",
	Short: "Render the angles and house cusps for an observer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDate(); err != nil {
			return err
		}
		pos, system, err := position()
		if err != nil {
			return err
		}
		return emit(cmd, gen.Houses(date, pos, system))
	},
}

var nodesCmd = &cobra.Command{
	Use:   "nodes [id]",
	Short: "Render nodes and apsides, for all planets or for one body",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDate(); err != nil {
			return err
		}
		m := ephemeris.NodeMethod(method)
		if len(args) == 0 {
			return emit(cmd, gen.PlanetaryNodes(date, m, capacityOr(report.NodesCapacity)))
		}

		id, err := parseBody(args[0])
		if err != nil {
			return err
		}
		jd := jdET
		if !cmd.Flags().Changed("jd-et") {
			jd = gen.Moment(date).ET
		}
		return emit(cmd, gen.SinglePlanetNodes(id, jd, m, capacityOr(report.SingleCapacity)))
	},
}

var asteroidsCmd = &cobra.Command{
	Use:   "asteroids",
	Short: "Render a range or a list of numbered asteroids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDate(); err != nil {
			return err
		}
		if cmd.Flags().Changed("list") {
			return emit(cmd, gen.SpecificAsteroids(date, list, capacityOr(report.AsteroidsCapacity)))
		}
		return emit(cmd, gen.Asteroids(date, start, end, capacityOr(report.AsteroidsCapacity)))
	},
}

var jdCmd = &cobra.Command{
	Use:   "jd",
	Short: "Render the UT Julian day of a date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDate(); err != nil {
			return err
		}
		return emit(cmd, gen.JulianDay(date))
	},
}

var dmsCmd = &cobra.Command{
	Use:   "dms [degrees]",
	Short: "Format decimal degrees as degrees, minutes and seconds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", args[0])
		}
		return emit(cmd, gen.DegreesToDMS(v, format.Flags(dmsFlags)))
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the ephemeris in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(cmd, gen.EphemerisInfo(capacityOr(report.EphemerisCapacity)))
	},
}
