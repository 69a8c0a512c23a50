// Package main is the entry point for the DEX swap client.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zk-web3/darknodedex-sub000/business/swap"
	swapDI "github.com/zk-web3/darknodedex-sub000/business/swap/di"
	"github.com/zk-web3/darknodedex-sub000/business/wallet"
	walletDI "github.com/zk-web3/darknodedex-sub000/business/wallet/di"
	"github.com/zk-web3/darknodedex-sub000/internal/apm"
	"github.com/zk-web3/darknodedex-sub000/internal/config"
	"github.com/zk-web3/darknodedex-sub000/internal/health"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
	"github.com/zk-web3/darknodedex-sub000/internal/metrics"
	"github.com/zk-web3/darknodedex-sub000/internal/monolith"
	"github.com/zk-web3/darknodedex-sub000/pkg/ui"
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
	cliMode := flag.Bool("cli", false, "Run headless with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dex %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

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

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Swap.TUIMode = tuiMode

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	// The TUI owns the terminal, so logs are dropped in that mode.
	var log *logger.Logger
	if tuiMode {
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting DEX swap client",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	if cfg.Telemetry.Enabled {
		traceProvider, err := apm.NewTraceProvider(ctx, apm.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Exporter:    apm.Exporter(cfg.Telemetry.TraceExporter),
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer traceProvider.Stop()

		meterProvider, err := metrics.NewMeterProvider(ctx, metrics.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Prometheus:   true,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer meterProvider.Shutdown(context.Background())

		go func() {
			if err := metrics.ServePrometheus(ctx, cfg.Telemetry.PrometheusPort); err != nil {
				log.Warn(ctx, "prometheus server stopped", "error", err)
			}
		}()
		log.Info(ctx, "telemetry initialized",
			"trace_exporter", cfg.Telemetry.TraceExporter,
			"prometheus_port", cfg.Telemetry.PrometheusPort,
		)
	}

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	modules := []monolith.Module{
		&wallet.Module{}, // provides the signing account
		&swap.Module{},   // depends on wallet for signing and identity
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	healthServer := health.NewServer(8081, version)
	healthServer.RegisterCheck("eth_node", health.EthNodeCheck(mono.EthClient(), cfg.Ethereum.ChainID))
	if cfg.PriceFeed.Enabled {
		if feed, ok := swapDI.GetReferencePrices(mono.Services()).(interface{ LastUpdate() time.Time }); ok {
			healthServer.RegisterCheck("price_feed", health.StalenessCheck(feed.LastUpdate, cfg.PriceFeed.StaleTimeout))
		}
	}
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	}
	defer healthServer.Stop(context.Background())

	if tuiMode {
		return runTUI(mono)
	}
	return runCLI(ctx, mono, log)
}

// runTUI hands the terminal to Bubble Tea until the user quits.
func runTUI(mono monolith.Monolith) error {
	w := walletDI.GetWallet(mono.Services())

	return ui.Run(ui.Deps{
		Orchestrator: swapDI.GetOrchestrator(mono.Services()),
		Whitelist:    swapDI.GetWhitelist(mono.Services()),
		Prices:       swapDI.GetReferencePrices(mono.Services()),
		Address:      w.Address().Hex(),
	})
}

// runCLI keeps the services up headless: health endpoints, metrics and
// the price feed keep running until shutdown.
func runCLI(ctx context.Context, mono monolith.Monolith, log *logger.Logger) error {
	w := walletDI.GetWallet(mono.Services())
	wl := swapDI.GetWhitelist(mono.Services())

	pairs := make([]string, 0, len(wl.Pairs()))
	for _, p := range wl.Pairs() {
		pairs = append(pairs, p.String())
	}

	log.Info(ctx, "running headless",
		"address", w.Address().Hex(),
		"chain_id", w.ChainID(),
		"pairs", pairs,
	)

	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}
