package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"studycal/internal/capture"
	"studycal/internal/config"
	appLog "studycal/internal/log"
	"studycal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
	debug      bool
	verbose    bool
}

func main() {
	appLog.Info("studycal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"hour_range", conf.HourStart,
		"hour_range_end", conf.HourEnd,
		"rest_count", len(conf.REST),
		"ics_count", len(conf.ICS),
		"once", flags.once,
		"snapshot", flags.snapshot,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	server := web.NewServer(conf, flags.debug)

	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	refreshJob := func() {
		jobCtx, jobCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer jobCancel()

		if err := server.Refresh(jobCtx); err != nil {
			appLog.Error("refresh failed", err)
			return
		}

		if flags.snapshot {
			out := server.SnapshotPath()
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				appLog.Error("snapshot dir create failed", err, "path", out)
				return
			}
			if err := capture.SnapshotPNG(jobCtx, capture.Options{
				URL:        "http://" + conf.Listen + "/",
				OutputPath: out,
			}); err != nil {
				appLog.Error("snapshot capture failed", err)
				return
			}
			appLog.Info("snapshot captured", "path", out)
		}
	}

	// Initial refresh so the first page view is populated.
	refreshJob()

	if flags.once {
		shutdown(httpSrv)
		appLog.Info("studycal exiting (once)")
		return
	}

	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, refreshJob); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		appLog.Error("HTTP server failed", err)
		cancel()
	}

	shutdown(httpSrv)
	appLog.Info("studycal exiting")
}

func shutdown(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/studycal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh(+snapshot) cycle and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture a PNG snapshot of the calendar page on each refresh")
	flag.BoolVar(&cfg.debug, "debug", false, "Use local ./cache paths instead of /var/lib/studycal")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
