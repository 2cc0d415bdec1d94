package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/fetcher"
	"github.com/IshaanNene/RivalScope/internal/worker"
)

// workerCmd creates the hidden "worker" subcommand run by the gateway. It
// handles one request and writes exactly one JSON document to stdout.
func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "worker [product|search|screenshot] [arg] [domain] [page|language]",
		Short:  "Fetch one page and print it as JSON (internal)",
		Hidden: true,
		Args:   cobra.ArbitraryArgs,
		RunE:   runWorker,
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	loadErr := err
	if err != nil {
		cfg = config.DefaultConfig()
	}

	logger := workerLogger(cfg).With("request_id", os.Getenv(worker.EnvRequestID))
	if loadErr != nil {
		logger.Warn("config load failed, using defaults", "error", loadErr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := worker.NewServer(cfg, logger, fetcher.Options{
		Proxy:      os.Getenv(worker.EnvProxy),
		BrowserBin: cfg.Browser.Bin,
	})
	logger.Debug("worker started", "args", args)
	return srv.Serve(ctx, args, os.Stdout)
}

// workerLogger writes JSON logs to stderr; stdout belongs to the result.
func workerLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
