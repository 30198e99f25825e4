package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/calm-violet-crane/aiops-analyzer/internal/api"
	"github.com/calm-violet-crane/aiops-analyzer/internal/api/health"
	"github.com/calm-violet-crane/aiops-analyzer/internal/engine"
	"github.com/calm-violet-crane/aiops-analyzer/internal/metrics"
	"github.com/calm-violet-crane/aiops-analyzer/internal/scheduler"
	"github.com/calm-violet-crane/aiops-analyzer/internal/source"
	"github.com/calm-violet-crane/aiops-analyzer/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "aiops-analyzer",
	Short: "AIOps Analyzer - Anomaly detection over shipped log events",
	Long: `AIOps Analyzer periodically fetches a window of log events from the
log store, detects repeated errors, response-time degradation, and
unusual traffic, and serves the resulting anomalies and remediation
recommendations over HTTP.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := config.GetBuildInfo()
		fmt.Printf("aiops-analyzer %s\n", info.Version)
		fmt.Printf("  commit: %s\n", info.Commit)
		fmt.Printf("  built:  %s\n", info.BuildTime)
		fmt.Printf("  go:     %s %s/%s\n", info.GoVersion, info.OS, info.Arch)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	cfg.Verbose = verbose

	// Connect the log source. A store that is down at boot is not
	// fatal; runs fail individually until it comes back.
	src := source.NewClickHouseSource(&source.ClickHouseConfig{
		Addresses:   cfg.ClickHouse.Addresses,
		Database:    cfg.ClickHouse.Database,
		Username:    cfg.ClickHouse.Username,
		Password:    cfg.ClickHouse.Password,
		Environment: cfg.ClickHouse.Environment,
		Compression: cfg.ClickHouse.Compression,
	})
	if err := src.Open(); err != nil {
		log.Printf("warning: log store unreachable: %v", err)
	} else {
		log.Printf("connected to clickhouse at %v", cfg.ClickHouse.Addresses)
		if err := src.Migrate(); err != nil {
			log.Printf("warning: log store migration failed: %v", err)
		}
	}
	defer src.Close()

	// Build the engine
	eng := engine.New(src, engine.Config{
		ErrorThreshold:          cfg.Analysis.ErrorThreshold,
		ResponseTimeThresholdMs: cfg.Analysis.ResponseTimeThresholdMs,
		Window:                  cfg.Window(),
		FrontendService:         cfg.Analysis.FrontendService,
		BackendService:          cfg.Analysis.BackendService,
	})

	// Build servers
	apiServer := api.NewServer(api.Config{
		Addr:             cfg.Server.HTTPAddress,
		AnalyzeRateLimit: cfg.Server.AnalyzeRateLimit,
		Verbose:          cfg.Verbose,
	}, eng)
	apiServer.RegisterChecker(health.NewPingChecker("clickhouse", src))

	metricsServer := metrics.NewServer(cfg.Server.MetricsAddress)
	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	sched := scheduler.New(cfg.Interval(), func(ctx context.Context) error {
		_, err := eng.Analyze(ctx)
		return err
	})

	// Setup signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("starting aiops-analyzer %s", config.Version)
	log.Printf("analysis interval %s, window %s", cfg.Interval(), cfg.Window())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(apiServer.Start)
	g.Go(metricsServer.Start)

	g.Go(func() error {
		if err := sched.Run(gctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	// Threshold hot reload, only when a config file is in use.
	if configFile != "" {
		g.Go(func() error {
			return watchConfig(gctx, configFile, eng)
		})
	}

	// Shut the servers down once the context ends.
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("api shutdown: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("run analyzer: %w", err)
	}

	log.Printf("analyzer stopped")
	return nil
}
