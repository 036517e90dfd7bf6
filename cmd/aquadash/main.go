package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/aquadash/internal/chart"
	"github.com/luki/aquadash/internal/config"
	"github.com/luki/aquadash/internal/monitor"
	"github.com/luki/aquadash/internal/notify"
	"github.com/luki/aquadash/internal/poll"
	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/session"
	"github.com/luki/aquadash/internal/source"
)

var version = "dev"

func main() {
	cmd, args := "watch", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "watch":
		cmdWatch(args)
	case "headless":
		cmdHeadless(args)
	case "serve":
		cmdServe(args)
	case "simulate":
		cmdSimulate(args)
	case "version":
		fmt.Printf("aquadash %s\n", version)
	case "help":
		printUsage()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `aquadash - live water-quality dashboard (%s)

Usage:
  %s [command] [flags]

Commands:
  watch          Terminal dashboard (default)
  headless       Poll and log notifications without a UI
  serve          Run the reference data source
  simulate       Feed random-walk readings to a data source
  version        Print version

Flags:
  -config PATH          Config file (default: ~/.config/aquadash/config.yaml)
  -endpoint URL         Sensor data URL (default: http://127.0.0.1:5000/api/data)
  -interval D           Poll interval (default: 1.5s)
  -stale-after D        Staleness threshold (default: 15s)
  -policy P             transition or per-sensor (default: transition)
  -desktop BOOL         OS push notifications (default: true)
  -log-file PATH        Log file for the dashboard (default: aquadash.log)
  -listen ADDR          Data source listen address (default: 127.0.0.1:5000)

Examples:
  %s serve
  %s simulate -interval 2s
  %s
  %s headless -policy per-sensor
`, version, exe, exe, exe, exe, exe)
}

func loadConfig(name string, args []string) *config.Config {
	cfg, err := config.Load(name, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "aquadash %s: %v\n", name, err)
		os.Exit(2)
	}
	return cfg
}

func sessionConfig(cfg *config.Config, logger *log.Logger) session.Config {
	return session.Config{
		Policy:           cfg.NotifyPolicy(),
		Thresholds:       cfg.Thresholds,
		StaleAfter:       cfg.StaleAfter,
		BlinkPeriod:      cfg.BlinkPeriod,
		MaxNotifications: cfg.MaxNotifications,
		Logger:           logger,
	}
}

// ---------------------------------------------------------------------------
// watch: terminal dashboard
// ---------------------------------------------------------------------------

func cmdWatch(args []string) {
	cfg := loadConfig("watch", args)

	// The alt screen owns the terminal, so logs go to a file.
	f, err := tea.LogToFile(cfg.LogFile, "aquadash")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file %s: %v\n", cfg.LogFile, err)
		os.Exit(1)
	}
	defer f.Close()

	desktop := notify.NewDesktop(cfg.DesktopNotify)
	log.Printf("[main] polling %s every %s (policy %s, desktop notifications %v)",
		cfg.Endpoint, cfg.PollInterval, cfg.NotifyPolicy(), desktop.Granted())

	m, err := monitor.New(poll.NewHTTPFetcher(cfg.Endpoint), cfg.PollInterval, sessionConfig(cfg, nil), desktop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aquadash: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "aquadash: %v\n", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// headless: poll loop with logged notifications
// ---------------------------------------------------------------------------

func cmdHeadless(args []string) {
	cfg := loadConfig("headless", args)

	sinks := make(map[sensor.ID]session.SeriesSink)
	for _, id := range sensor.IDs() {
		sinks[id] = chart.NewSeries(id)
	}
	sess, err := session.New(sessionConfig(cfg, nil), sinks, notify.NewDesktop(cfg.DesktopNotify))
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := &poll.Loop{
		Fetcher:  poll.NewHTTPFetcher(cfg.Endpoint),
		Handler:  sess,
		Interval: cfg.PollInterval,
	}
	log.Printf("[main] polling %s every %s (policy %s)", cfg.Endpoint, cfg.PollInterval, cfg.NotifyPolicy())
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[main] %v", err)
	}
	log.Printf("[main] stopped in state %s", sess.State())
}

// ---------------------------------------------------------------------------
// serve: reference data source
// ---------------------------------------------------------------------------

func cmdServe(args []string) {
	cfg := loadConfig("serve", args)

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Fatalf("[source] %v", err)
	}
	srv := &http.Server{Handler: source.NewServer(cfg.StaleAfter, cfg.Thresholds).Router()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[source] listening on http://%s/api/data", ln.Addr())
	if err := serveUntil(ctx, srv, ln, 5*time.Second); err != nil {
		log.Fatalf("[source] %v", err)
	}
}

// serveUntil serves on ln until ctx is done, then shuts down within grace.
// It returns the serve error, or the shutdown error if draining failed.
func serveUntil(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Println("[source] shutting down...")

	shutCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// simulate: random-walk feeder
// ---------------------------------------------------------------------------

func cmdSimulate(args []string) {
	cfg := loadConfig("simulate", args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := source.NewSimulator(cfg.Endpoint, cfg.PollInterval, cfg.Thresholds, uint64(time.Now().UnixNano()))
	log.Printf("[simulate] posting to %s every %s", cfg.Endpoint, cfg.PollInterval)
	if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[simulate] %v", err)
	}
}
