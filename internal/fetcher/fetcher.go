package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/types"
)

// Fetcher retrieves the HTML of a single URL.
type Fetcher interface {
	// Fetch retrieves the page at url, optionally waiting for waitSelector to
	// appear. A page showing a bot challenge fails with types.ErrBlocked.
	Fetch(ctx context.Context, url, waitSelector string) (*types.Page, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// Screenshotter captures a viewport image of a URL.
type Screenshotter interface {
	Screenshot(ctx context.Context, url string) ([]byte, error)
}

// Options carries per-invocation settings that are not part of Config.
type Options struct {
	// Proxy is the proxy URL chosen by the caller for this invocation.
	Proxy string

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// New creates the fetcher selected by cfg.Fetch.Mode.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (Fetcher, error) {
	switch cfg.Fetch.Mode {
	case "browser", "":
		return NewBrowserFetcher(cfg, logger, opts), nil
	case "http":
		return NewHTTPFetcher(cfg, logger, opts)
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", cfg.Fetch.Mode)
	}
}
