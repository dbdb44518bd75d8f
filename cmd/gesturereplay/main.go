// Command gesturereplay feeds a recorded touch trace through the viewport
// engine and prints the resulting transform and visible routes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"wallmap/internal/config"
	"wallmap/internal/logging"
	"wallmap/internal/replay"
	"wallmap/internal/routes"
	"wallmap/internal/version"
	"wallmap/internal/viewport"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "config file (default: wallmap.yaml in . or ./configs)")
	routesPath := pflag.StringP("routes", "r", "", "route file used for the visible list")
	sortName := pflag.String("sort", "distance", "visible list order (distance, grade-asc, grade-desc, rating, recency)")
	asYAML := pflag.Bool("yaml", false, "print the full result as YAML")
	verbose := pflag.Bool("verbose", false, "log engine activity")
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gesturereplay [flags] trace.yaml\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.String("gesturereplay"))
		return
	}
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	viewport.SetLogger(logging.Setup(level, cfg.Log.Format).With("component", "viewport"))

	sortKey, err := viewport.ParseSortKey(*sortName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tr, err := replay.LoadTrace(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load trace: %v\n", err)
		os.Exit(1)
	}

	opts := replay.Options{
		Engine:  cfg.Viewport.Options(),
		Gesture: cfg.Gesture.Recognizer(),
		Epsilon: cfg.Viewport.Epsilon,
		Sort:    sortKey,
		Padding: cfg.Viewport.Padding,
	}
	if *routesPath != "" {
		f, err := routes.LoadFile(*routesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load routes: %v\n", err)
			os.Exit(1)
		}
		opts.Routes = f.Routes
		if a := f.Wall.Aspect(); a > 0 {
			opts.Engine.ContentAspect = a
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := replay.Run(ctx, tr, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
		os.Exit(1)
	}

	if *asYAML {
		out, err := yaml.Marshal(res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	fmt.Printf("Trace: %d events over %v, container %.0fx%.0f\n",
		len(tr.Events), tr.End, tr.Container.Width, tr.Container.Height)
	fmt.Printf("Final: scale %.3f translate (%.1f, %.1f)\n",
		res.Final.Scale, res.Final.TranslateX, res.Final.TranslateY)
	for _, p := range res.Taps {
		fmt.Printf("  tap at (%.0f, %.0f)\n", p.X, p.Y)
	}
	for _, p := range res.LongPresses {
		fmt.Printf("  long press at (%.0f, %.0f)\n", p.X, p.Y)
	}
	if len(opts.Routes) > 0 {
		fmt.Printf("Visible (%s): %d of %d routes\n", sortKey, len(res.Visible), len(opts.Routes))
		for _, id := range res.Visible {
			fmt.Printf("  %s\n", id)
		}
	}
}
