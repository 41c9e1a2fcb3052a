package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"

	"github.com/pulseview/pulseview/internal/backend"
	"github.com/pulseview/pulseview/internal/config"
	"github.com/pulseview/pulseview/internal/models"
	"github.com/pulseview/pulseview/internal/state"
	"github.com/pulseview/pulseview/internal/ui"
)

var (
	// Set by LDFLAGS
	version = "dev"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pulseview: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	mockMode := flag.Bool("mock", false, "Run against a simulated backend (no server required)")
	baseURL := flag.String("base-url", "", "Backend base URL (overrides config and platform default)")
	platform := flag.String("platform", "", "Platform for base URL resolution (local, ios-sim, android-emu, device)")
	useWS := flag.Bool("ws", false, "Use the websocket stream transport instead of polling")
	interval := flag.Duration("interval", 0, "Stream poll interval (e.g. 500ms)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("pulseview", version)
		return nil
	}

	cfg, _, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *baseURL != "" {
		cfg.Backend.BaseURL = *baseURL
	}
	if *platform != "" {
		cfg.Backend.Platform = models.Platform(*platform)
	}
	if *useWS {
		cfg.Backend.Transport = models.TransportWebSocket
	}
	if *interval > 0 {
		cfg.Backend.PollIntervalMs = int(interval.Milliseconds())
	}

	log, closeLog, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	// The base URL is resolved exactly once; everything downstream
	// treats it as immutable.
	resolvedURL := cfg.ResolveBaseURL()

	var be backend.Backend
	if *mockMode {
		be = backend.NewMockBackend(nil)
		log.Info("using simulated backend")
	} else {
		client, err := backend.New(backend.Config{
			BaseURL: resolvedURL,
			Timeout: time.Duration(cfg.Backend.TimeoutMs) * time.Millisecond,
			Logger:  log,
		})
		if err != nil {
			return err
		}
		be = client
		log.Info("backend resolved", "url", resolvedURL, "platform", cfg.Backend.Platform)
	}

	uiState, _ := state.Load() // Ignore error, use defaults

	app := ui.NewApp(cfg, uiState, be, resolvedURL, *mockMode, log)

	p := tea.NewProgram(app, tea.WithAltScreen())
	finalModel, err := p.Run()
	app.Shutdown()
	if err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	// Save state on exit
	if finalApp, ok := finalModel.(*ui.App); ok {
		_ = state.Save(finalApp.GetState()) // Best effort save
	}
	return nil
}

// newLogger sets up a tinted slog handler writing to a log file; the
// terminal itself belongs to the TUI.
func newLogger(level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q", level)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return slog.New(tint.NewHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return slog.New(tint.NewHandler(io.Discard, nil)), func() {}, nil
	}

	f, err := os.OpenFile(filepath.Join(dir, "pulseview.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return slog.New(tint.NewHandler(io.Discard, nil)), func() {}, nil
	}

	log := slog.New(tint.NewHandler(f, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
		NoColor:    true,
	}))
	return log, func() { _ = f.Close() }, nil
}
