package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/ephemeris/kepler"
	"github.com/astroahava/astro-sweph/internal/report"
)

var (
	// Global flags
	verbose   bool
	ephePath  string
	margin    int
	withEarth bool

	gen *report.Generator
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "astroctl",
	Short: "Render ephemeris documents from the command line",
	Long: `astroctl renders the same documents the HTTP service returns, without a server.

Every command prints one document to stdout. Batch documents stay well formed
when --capacity is too small: the batch stops with a truncation notice and the
summary counts what was written.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		engine := kepler.New(ephePath)
		gen = report.NewGenerator(ephemeris.NewOracle(engine, logger), logger, report.Options{
			Margin:            margin,
			NodesIncludeEarth: withEarth,
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&ephePath, "ephe-path", "eph", "Ephemeris data directory")
	rootCmd.PersistentFlags().IntVar(&margin, "margin", report.DefaultMargin, "Free bytes below which a batch stops")
	rootCmd.PersistentFlags().BoolVar(&withEarth, "nodes-include-earth", false, "Include Earth in the nodes batch")

	for _, c := range []*cobra.Command{chartCmd, planetsCmd, planetCmd, housesCmd, nodesCmd, asteroidsCmd, jdCmd} {
		addDateFlags(c)
	}
	for _, c := range []*cobra.Command{chartCmd, housesCmd} {
		addGeoFlags(c)
	}
	for _, c := range []*cobra.Command{chartCmd, nodesCmd, asteroidsCmd, infoCmd} {
		c.Flags().IntVar(&capacity, "capacity", 0, "Document capacity in bytes (0 for the command default)")
	}

	nodesCmd.Flags().IntVar(&method, "method", int(ephemeris.NodeMean), "Node method bits: 1 mean, 2 osculating, 4 barycentric, 256 focal point")
	nodesCmd.Flags().Float64Var(&jdET, "jd-et", 0, "ET Julian day for a single body (overrides the date flags)")

	asteroidsCmd.Flags().StringVar(&list, "list", "", "Comma separated asteroid numbers")
	asteroidsCmd.Flags().IntVar(&start, "start", 1, "First asteroid number")
	asteroidsCmd.Flags().IntVar(&end, "end", 10, "Last asteroid number")

	dmsCmd.Flags().IntVar(&dmsFlags, "flags", 4, "Layout flags: 1 round seconds, 2 round minutes, 4 zodiac, 2048 hours")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(planetsCmd)
	rootCmd.AddCommand(planetCmd)
	rootCmd.AddCommand(housesCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(asteroidsCmd)
	rootCmd.AddCommand(jdCmd)
	rootCmd.AddCommand(dmsCmd)
	rootCmd.AddCommand(infoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
