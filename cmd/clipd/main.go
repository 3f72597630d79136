// clipd confines the pointer to the focused window of a target application.
//
// It polls the foreground window, applies OS pointer confinement while the
// target holds focus, and releases it the instant focus moves elsewhere.
// Ctrl+Shift+C toggles clipping; a configurable trigger key snaps the
// pointer back to the window center. clipctl talks to a running daemon
// over the control endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clipd/internal/config"
	"clipd/internal/daemon"
	"clipd/internal/logging"
)

var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default: platform config dir)")
		logLevel    = flag.String("log-level", "", "override log level (debug, info, warn, error)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("clipd %s\n", version)
		return
	}

	if err := run(*configPath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "clipd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel string) error {
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}

	// Load applies CLIPD_* env overrides and validates.
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	log := logger.Component("main")

	log.Info("clipd starting", "version", version, "config", path)

	d, err := daemon.New(cfg, logger.Component("clipd"))
	if err != nil {
		return err
	}

	// Config edits while running are noted but take effect on restart;
	// the tick path never re-reads configuration.
	loader := config.NewLoader(path)
	if err := loader.Watch(); err != nil {
		log.Warn("config watch unavailable", "error", err)
	} else {
		loader.OnChange(func(*config.Config) {
			log.Warn("configuration file changed; restart clipd to apply")
		})
		defer loader.Close()
	}

	// Ctrl+C, SIGTERM, and console close all land here; the daemon's
	// deferred cleanup releases confinement before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		return err
	}

	log.Info("clipd stopped")
	return nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:    level,
		Format:   format,
		Output:   cfg.Logging.Output,
		FilePath: cfg.Logging.File,
	})
}
