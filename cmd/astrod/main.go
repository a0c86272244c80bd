package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/astroahava/astro-sweph/internal/api"
	"github.com/astroahava/astro-sweph/internal/auth"
	"github.com/astroahava/astro-sweph/internal/config"
	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/ephemeris/kepler"
	"github.com/astroahava/astro-sweph/internal/report"
	"github.com/astroahava/astro-sweph/internal/transform"
)

func main() {
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &level,
	}))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.Level())

	engine := kepler.New(cfg.Ephemeris.DataPath)
	oracle := ephemeris.NewOracle(engine, logger)
	gen := report.NewGenerator(oracle, logger, report.Options{
		Margin:            cfg.Report.TruncationMargin,
		NodesIncludeEarth: cfg.Ephemeris.NodesIncludeEarth,
	})

	srv := api.NewServer(cfg.HTTPAddr, logger, gen, api.Options{
		Auth:             auth.Config{Enabled: cfg.Auth.Enabled, Tokens: cfg.Auth.Tokens},
		TrustProxy:       cfg.TrustProxy,
		MaxCapacity:      cfg.Report.MaxCapacity,
		MaxInflightBytes: cfg.Report.MaxInflightBytes,
		HouseSystem:      cfg.Ephemeris.HouseSystem[0],
		Ready:            readiness(oracle),
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"auth_enabled", cfg.Auth.Enabled,
			"engine", engine.Version(),
			"ephemeris_path", engine.DataPath(),
			"truncation_margin", gen.Margin(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// readiness reports ready while the engine can place the Sun at J2000.
func readiness(oracle *ephemeris.Oracle) func() error {
	return func() error {
		r := oracle.Body(transform.J2000, ephemeris.Sun)
		if !r.OK() {
			return fmt.Errorf("engine self-check: %s", r.Message)
		}
		return nil
	}
}
