package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"fahrplan/internal/config"
	"fahrplan/internal/grid"
	appLog "fahrplan/internal/log"
	"fahrplan/internal/schedule"
	"fahrplan/internal/source"
	"fahrplan/internal/state"
	"fahrplan/internal/ui"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	columns    int
	logLevel   string
	schedule   string
}

func main() {
	if err := run(parseFlags()); err != nil {
		appLog.Error("fahrplan failed", err)
		fmt.Fprintln(os.Stderr, "fahrplan:", err)
		os.Exit(1)
	}
}

func run(flags flagConfig) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", flags.configPath, err)
	}

	// CLI flags override the config file if provided.
	if flags.columns > 0 {
		conf.Columns = flags.columns
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	if flags.schedule != "" {
		conf.Schedule = flags.schedule
	}

	closeLog, err := setupLog(conf)
	if err != nil {
		return err
	}
	defer closeLog()

	appLog.Info("fahrplan starting", "version", version)
	appLog.Info("effective config",
		"config_path", flags.configPath,
		"schedule", conf.Schedule,
		"columns", conf.Columns,
		"timezone", conf.Timezone,
		"cache_dir", conf.CacheDir,
		"ics_horizon_days", conf.ICSHorizonDays,
	)

	if conf.Schedule == "" {
		return errors.New("no schedule given: pass a file or URL, or set schedule in the config")
	}

	// Root context with cancellation on SIGINT/SIGTERM while loading. Once
	// the UI runs, ctrl+c arrives as a key press instead.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	imp, err := source.Load(ctx, conf.Schedule, source.Options{
		CacheDir:   filepath.Join(conf.CacheDir, "schedule-cache"),
		ICSHorizon: conf.ICSHorizon(),
	})
	if err != nil {
		return err
	}

	sched, err := schedule.New(imp)
	if err != nil {
		return fmt.Errorf("schedule construction failure: %w", err)
	}
	g := grid.Build(sched, conf.Columns)

	store, err := state.New(sched, g)
	if err != nil {
		return err
	}

	appLog.Info("schedule ready",
		"events", sched.Len(),
		"rows", g.Len(),
		"columns", g.Width(),
		"hidden_in_grid", len(g.Dropped()),
	)

	stop()
	err = ui.Run(store, ui.Options{Location: conf.Location()})
	appLog.Info("fahrplan exiting")
	return err
}

// setupLog points the logger at the configured file, since the terminal
// belongs to the UI.
func setupLog(conf *config.Config) (func(), error) {
	level, ok := appLog.ParseLevel(conf.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", conf.LogLevel)
	}
	appLog.SetLevel(level)

	if err := os.MkdirAll(filepath.Dir(conf.LogFile), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(conf.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	appLog.SetOutput(f)

	return func() {
		appLog.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", config.DefaultPath(), "Path to config file")
	flag.IntVar(&cfg.columns, "columns", 0, "Grid columns (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, error (overrides config if set)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [schedule.xml|schedule.ics|URL]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.Parse()
	cfg.schedule = flag.Arg(0)

	return cfg
}
