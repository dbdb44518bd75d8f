// Package main provides the entry point for the Wallmap application.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"wallmap/internal/app"
	"wallmap/internal/config"
	"wallmap/internal/logging"
	"wallmap/internal/telemetry"
	"wallmap/internal/version"
	"wallmap/internal/viewport"
	"wallmap/ui/mainwindow"
	"wallmap/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const appID = "io.github.wallmap"

func main() {
	configPath := pflag.StringP("config", "c", "", "config file (default: wallmap.yaml in . or ./configs)")
	logLevel := pflag.String("log-level", "", "override log.level (debug, info, warn, error)")
	metricsAddr := pflag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wallmap [flags] [routes.yaml]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.String("wallmap"))
		return
	}

	src, err := config.Open(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := src.Config()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger := logging.Setup(level, cfg.Log.Format)
	viewport.SetLogger(logger.With("component", "viewport"))
	slog.Info("starting wallmap", "version", version.Version, "config", src.File())

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.WallmapTheme{})

	state := app.NewState(cfg.Viewport.Throttle())
	defer state.Close()

	engine := viewport.NewEngine(cfg.Viewport.Options())
	reporter := viewport.NewReporter(cfg.Viewport.Epsilon, state.OnTransform)
	engine.SetReporter(reporter)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reporter.Run(ctx) })
	if *metricsAddr != "" {
		g.Go(func() error { return telemetry.Serve(ctx, *metricsAddr) })
	}

	userPrefs := prefs.Load()
	win := mainwindow.New(fyneApp, state, userPrefs, engine, cfg)

	routesPath := cfg.Wall.Routes
	if pflag.NArg() > 0 {
		routesPath = pflag.Arg(0)
	} else if routesPath == "" {
		routesPath = userPrefs.String(prefs.KeyLastFile)
	}
	if routesPath != "" {
		if err := win.OpenRoutes(routesPath); err != nil {
			slog.Error("failed to open routes", "path", routesPath, "error", err)
		}
	}

	if src.Watch(func(c *config.Config, err error) {
		if err != nil {
			slog.Warn("config reload rejected", "error", err)
			return
		}
		reporter.SetEpsilon(c.Viewport.Epsilon)
		win.ApplyConfig(c)
		slog.Info("config reloaded")
	}) {
		slog.Info("watching config", "file", src.File())
	}

	win.ShowAndRun()

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("background task failed", "error", err)
	}
}
