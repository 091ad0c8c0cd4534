// Command gatewayd runs the FIX/FIXP session gateway: it owns the
// registry of sessions handed between library workers and the admin
// command stream, and exposes that registry over HTTP for gatewayctl.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadaptive/artio-go/internal/logger"
	"github.com/wadaptive/artio-go/internal/telemetry"
	"github.com/wadaptive/artio-go/pkg/adminapi"
	"github.com/wadaptive/artio-go/pkg/config"
	"github.com/wadaptive/artio-go/pkg/metrics"
	"github.com/wadaptive/artio-go/pkg/sessionreg"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `gatewayd - FIX/FIXP session gateway

Usage:
  gatewayd <command> [flags]

Commands:
  init     Initialize a sample configuration file
  start    Start the gateway process
  version  Show version information

Flags:
  --config string    Path to config file (default: $XDG_CONFIG_HOME/gateway/config.yaml)
  --force            Force overwrite existing config file (init command only)

Examples:
  gatewayd init
  gatewayd start
  gatewayd start --config /etc/gateway/config.yaml
  GATEWAY_LOGGING_LEVEL=DEBUG gatewayd start

Environment Variables:
  All configuration options can be overridden using environment variables.
  Format: GATEWAY_<SECTION>_<KEY> (use underscores for nested keys)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit()
	case "start":
		runStart()
	case "help", "--help", "-h":
		fmt.Print(usage)
		os.Exit(0)
	case "version", "--version", "-v":
		fmt.Printf("gatewayd %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runInit() {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	configFile := initFlags.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/gateway/config.yaml)")
	force := initFlags.Bool("force", false, "Force overwrite existing config file")

	if err := initFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	var configPath string
	var err error
	if *configFile != "" {
		err = config.InitConfigToPath(*configFile, *force)
		configPath = *configFile
	} else {
		configPath, err = config.InitConfig(*force)
	}
	if err != nil {
		log.Fatalf("failed to initialize config: %v", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the gateway with: gatewayd start")
	fmt.Printf("  3. Or specify a custom config: gatewayd start --config %s\n", configPath)
}

func runStart() {
	startFlags := flag.NewFlagSet("start", flag.ExitOnError)
	configFile := startFlags.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/gateway/config.yaml)")

	if err := startFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := config.MustLoad(*configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "gatewayd",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "gatewayd",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		log.Fatalf("failed to initialize profiling: %v", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("gatewayd starting", "version", version, "commit", commit)
	logger.Info("log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}

	promRegistry := prometheus.NewRegistry()
	var gatewayMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		gatewayMetrics = metrics.NewMetrics(promRegistry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
		metricsAddr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		logger.Info("metrics enabled", "addr", metricsAddr)
		defer metricsSrv.Shutdown(context.Background())
	} else {
		gatewayMetrics = metrics.NewMetrics(nil)
		logger.Info("metrics disabled")
	}

	reg := sessionreg.NewRegistry()

	adminLog := slog.Default().With("component", "adminapi")
	adminSrv := adminapi.NewServer(cfg.Admin.ListenAddr, reg, gatewayMetrics, adminLog)

	adminDone := make(chan error, 1)
	go func() { adminDone <- adminSrv.ListenAndServe(ctx) }()
	logger.Info("admin command stream listening", "addr", adminSrv.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("gateway is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-adminDone; err != nil {
			logger.Error("admin server shutdown error", "error", err)
			os.Exit(1)
		}
		logger.Info("gateway stopped gracefully")

	case err := <-adminDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("admin server error", "error", err)
			os.Exit(1)
		}
		logger.Info("admin server stopped")
	}
}
