package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/engine"
	"github.com/IshaanNene/RivalScope/internal/marketplace"
	"github.com/IshaanNene/RivalScope/internal/observability"
	"github.com/IshaanNene/RivalScope/internal/worker"
)

var (
	cfgFile      string
	verbose      bool
	domain       string
	outputFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rivalscope",
		Short: "RivalScope: marketplace competitor analysis",
		Long: `RivalScope looks up marketplace products and analyses their competition.

Features:
  • Product lookup with prices, best-sellers rank, variants and reviews
  • Competitor discovery with rank-based tiering
  • Keyword rank tracking across result pages
  • Review keyword signals
  • Product page screenshots
  • JSON, JSONL, CSV output

Every page is fetched by a disposable worker process.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&domain, "domain", "d", marketplace.DefaultDomain,
		"marketplace: "+strings.Join(marketplace.Primary(), ", "))
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format: json, jsonl, csv")

	rootCmd.AddCommand(productCmd())
	rootCmd.AddCommand(competitorsCmd())
	rootCmd.AddCommand(keywordsCmd())
	rootCmd.AddCommand(reviewsCmd())
	rootCmd.AddCommand(screenshotCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles what every user-facing command needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	gateway *worker.Gateway
	engine  *engine.Engine
}

// newApp loads configuration, validates the global flags and wires the
// gateway and engine. The returned context is cancelled on SIGINT/SIGTERM.
func newApp() (*app, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if outputFormat != "" {
		cfg.Output.Format = strings.ToLower(outputFormat)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	if !marketplace.IsPrimary(domain) {
		return nil, nil, nil, fmt.Errorf("unsupported domain %q (valid: %s)", domain, strings.Join(marketplace.Primary(), ", "))
	}
	domain = strings.ToLower(strings.TrimSpace(domain))

	logger := setupLogger(cfg)
	metrics := observability.NewMetrics(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	gw := worker.NewGateway(cfg, logger,
		worker.WithConfigPath(cfgFile),
		worker.WithMetrics(metrics),
	)
	eng := engine.New(cfg, gw, logger, engine.WithMetrics(metrics))

	return &app{cfg: cfg, logger: logger, metrics: metrics, gateway: gw, engine: eng}, ctx, cancel, nil
}

// setupLogger creates the CLI logger. Logs go to stderr so stdout carries
// only results.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("RivalScope %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Fetch:\n")
			fmt.Printf("  Mode:               %s\n", cfg.Fetch.Mode)
			fmt.Printf("  Worker Binary:      %s\n", orDefault(cfg.Fetch.WorkerBinary, "(self)"))
			fmt.Printf("  Page Timeout:       %s\n", cfg.Fetch.PageTimeout)
			fmt.Printf("  Screenshot Timeout: %s\n", cfg.Fetch.ScreenshotTimeout)
			fmt.Printf("  Max Retries:        %d\n", cfg.Fetch.MaxRetries)
			fmt.Printf("  Rate Per Minute:    %d\n", cfg.Fetch.RatePerMinute)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Binary:             %s\n", orDefault(cfg.Browser.Bin, "(auto)"))
			fmt.Printf("  Viewport:           %dx%d\n", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
			fmt.Printf("  Locale:             %s\n", cfg.Browser.Locale)
			fmt.Printf("  Timezone:           %s\n", cfg.Browser.Timezone)
			fmt.Printf("\nProxy:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Proxy.Enabled)
			fmt.Printf("  Rotation:           %s\n", cfg.Proxy.Rotation)
			fmt.Printf("  Count:              %d\n", len(cfg.Proxy.URLs))
			fmt.Printf("\nDiscovery:\n")
			fmt.Printf("  Default Count:      %d\n", cfg.Discovery.DefaultCount)
			fmt.Printf("  Workers:            %d\n", cfg.Discovery.Workers)
			fmt.Printf("  Top Rank Max:       %d\n", cfg.Discovery.TopRankMax)
			fmt.Printf("  Benchmark Ratio:    %g\n", cfg.Discovery.BenchmarkRatio)
			fmt.Printf("\nKeywords:\n")
			fmt.Printf("  Max Pages:          %d\n", cfg.Keywords.MaxPages)
			fmt.Printf("  Max Phrases:        %d\n", cfg.Keywords.MaxPhrases)
			fmt.Printf("\nOutput:\n")
			fmt.Printf("  Format:             %s\n", cfg.Output.Format)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:               %d\n", cfg.Metrics.Port)
			return nil
		},
	}
	return cmd
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
