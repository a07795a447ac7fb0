// Package main is the entry point for the DEX arbitrage scanner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fd1az/dex-scanner/business/arbitrage"
	arbDI "github.com/fd1az/dex-scanner/business/arbitrage/di"
	"github.com/fd1az/dex-scanner/business/arbitrage/infra"
	"github.com/fd1az/dex-scanner/business/chain"
	chainDI "github.com/fd1az/dex-scanner/business/chain/di"
	"github.com/fd1az/dex-scanner/business/venues"
	"github.com/fd1az/dex-scanner/internal/apm"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/health"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/metrics"
	"github.com/fd1az/dex-scanner/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dex-scanner %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, cancel, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(cfg, tuiMode)
	if !tuiMode {
		log.Info(ctx, "starting dex-scanner",
			"version", version,
			"environment", cfg.App.Environment)
	}

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to start telemetry: %w", err)
		}
		defer stop()
	}

	healthServer := health.NewServer(cfg.App.HealthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.App.HealthPort)
	}
	defer healthServer.Stop(context.Background())

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Dependency order: chain provides the read pool and quotes,
	// venues the pool adapters, arbitrage drives the scan.
	modules := []monolith.Module{
		&chain.Module{},
		&venues.Module{},
		&arbitrage.Module{UseTUI: tuiMode},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	healthServer.RegisterCheck("chain", func(ctx context.Context) (bool, string) {
		svc := chainDI.GetChainService(mono.Services())
		if _, err := svc.LatestBlockNumber(ctx); err != nil {
			return false, err.Error()
		}
		return true, ""
	})

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if tuiMode {
		// Block until the user quits the dashboard, then unwind
		// through the deferred closers.
		if tui, ok := arbDI.GetReporter(mono.Services()).(*infra.TUIReporter); ok {
			select {
			case <-tui.Done():
				cancel()
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	}

	log.Info(ctx, "scanner running")
	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	return nil
}

func newLogger(cfg *config.Config, tuiMode bool) *logger.Logger {
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	// The dashboard owns the terminal in TUI mode.
	out := io.Writer(os.Stderr)
	if tuiMode {
		out = io.Discard
	}
	return logger.New(out, logLevel, cfg.App.Name, nil)
}

// startTelemetry wires tracing and metrics and returns a shutdown func.
func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	traceProvider, err := apm.NewTraceProvider(apm.Config{
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("trace provider: %w", err)
	}

	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
	)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("metric provider: %w", err)
	}

	go func() {
		err := metrics.ServePrometheusMetrics(cfg.Telemetry.PrometheusPort)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "prometheus metrics server stopped", "error", err)
		}
	}()
	log.Info(ctx, "telemetry started",
		"trace_provider", cfg.Telemetry.TraceProvider,
		"prometheus_port", cfg.Telemetry.PrometheusPort)

	return func() {
		_ = meterProvider.Shutdown(context.Background())
		_ = traceProvider.Stop()
	}, nil
}
